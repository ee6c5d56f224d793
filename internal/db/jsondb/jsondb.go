// Package jsondb implements the storage interface on top of a single JSON
// file. All data lives in memory and is flushed to the file on Close.
// It backs small deployments and doubles as the in-memory test storage.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized shape of the whole database.
type CacheStruct struct {
	UsersByID     map[int]*user.User
	UserIDByEmail map[string]int
	PostsByID     map[int]models.Post
	UserPostIDs   map[int][]int
	NextUserID    int
	NextPostID    int
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"UsersByID": {},
	"UserIDByEmail": {},
	"PostsByID": {},
	"UserPostIDs": {},
	"NextUserID": 1,
	"NextPostID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// New loads the database from fileName, creating an empty file when it does
// not exist yet.
func New(fileName string) (*JSONDB, error) {
	theDB := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(theDB.fileName, &theDB.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(theDB.fileName, &theDB.Cache)
		if err != nil {
			return nil, err
		}
	}

	normalizeCache(&theDB.Cache)

	return &theDB, nil
}

func normalizeCache(cache *CacheStruct) {
	if cache.UsersByID == nil {
		cache.UsersByID = map[int]*user.User{}
	}
	if cache.UserIDByEmail == nil {
		cache.UserIDByEmail = map[string]int{}
	}
	if cache.PostsByID == nil {
		cache.PostsByID = map[int]models.Post{}
	}
	if cache.UserPostIDs == nil {
		cache.UserPostIDs = map[int][]int{}
	}
	if cache.NextUserID == 0 {
		cache.NextUserID = 1
	}
	if cache.NextPostID == 0 {
		cache.NextPostID = 1
	}
}

// CreateUser inserts a new user. The email must be unique; a duplicate
// yields models.ErrEmailAlreadyRegistered.
func (db *JSONDB) CreateUser(ctx context.Context, email, passwordHash string) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UserIDByEmail[email]; exists {
		return nil, models.ErrEmailAlreadyRegistered
	}

	usr := &user.User{
		ID:           db.Cache.NextUserID,
		Email:        email,
		PasswordHash: passwordHash,
	}
	db.Cache.NextUserID++
	db.Cache.UsersByID[usr.ID] = usr
	db.Cache.UserIDByEmail[email] = usr.ID

	return usr, nil
}

// FindUserByEmail returns the user with the given email, if any.
func (db *JSONDB) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.UserIDByEmail[email]
	if !found {
		return nil, false, nil
	}

	return db.Cache.UsersByID[userID], true, nil
}

// FindUserByID returns the user with the given id, if any.
func (db *JSONDB) FindUserByID(ctx context.Context, id int) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.UsersByID[id]
	if !found {
		return nil, false, nil
	}

	return usr, true, nil
}

// CreatePost inserts a new post owned by userID. The storage is the final
// authority on the text size limit.
func (db *JSONDB) CreatePost(ctx context.Context, userID int, text string) (models.Post, error) {
	if len(text) > models.MaxPostTextBytes {
		return models.Post{}, models.ErrPostTextTooLarge
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	post := models.Post{
		ID:     db.Cache.NextPostID,
		Text:   text,
		UserID: userID,
	}
	db.Cache.NextPostID++
	db.Cache.PostsByID[post.ID] = post
	db.Cache.UserPostIDs[userID] = append(db.Cache.UserPostIDs[userID], post.ID)

	return post, nil
}

// ListPosts returns the posts of the user in creation order.
func (db *JSONDB) ListPosts(ctx context.Context, userID int) ([]models.Post, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.Post{}
	for _, postID := range db.Cache.UserPostIDs[userID] {
		result = append(result, db.Cache.PostsByID[postID])
	}

	return result, nil
}

// DeletePost removes the post with postID when it exists and is owned by
// userID. It reports false otherwise, without distinguishing the two cases.
func (db *JSONDB) DeletePost(ctx context.Context, userID, postID int) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	post, found := db.Cache.PostsByID[postID]
	if !found || post.UserID != userID {
		return false, nil
	}

	delete(db.Cache.PostsByID, postID)
	postIDs := db.Cache.UserPostIDs[userID]
	for i, id := range postIDs {
		if id == postID {
			db.Cache.UserPostIDs[userID] = append(postIDs[:i], postIDs[i+1:]...)
			break
		}
	}

	return true, nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.UsersByID)), nil
}

// GetNumberOfPosts returns the total amount of stored posts.
func (db *JSONDB) GetNumberOfPosts(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.PostsByID)), nil
}

// Ping always succeeds for the file-backed storage.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the database to its JSON file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
