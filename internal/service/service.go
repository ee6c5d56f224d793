// Package service implements the business rules of the blog: account
// registration and login, post creation, cached post listing, and
// owner-scoped post deletion.
package service

import (
	"context"

	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/password"
	"github.com/patric-chuzhbe/miniblog/internal/postscache"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*user.User, error)

	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindUserByID(ctx context.Context, id int) (*user.User, bool, error)
}

type postsKeeper interface {
	CreatePost(ctx context.Context, userID int, text string) (models.Post, error)

	ListPosts(ctx context.Context, userID int) ([]models.Post, error)

	DeletePost(ctx context.Context, userID, postID int) (bool, error)
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfPosts(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	postsKeeper
	statsKeeper
	pinger
}

type postsCache interface {
	GetOrLoad(ctx context.Context, userID int, loader postscache.Loader) ([]models.Post, error)
	Invalidate(userID int)
}

type Service struct {
	db    storage
	cache postsCache
}

func New(db storage, cache postsCache) *Service {
	return &Service{
		db:    db,
		cache: cache,
	}
}

// SignUp registers a new account and returns the created user.
// A taken email yields models.ErrEmailAlreadyRegistered. The email is
// pre-checked for a cheap early answer, but the storage uniqueness
// constraint remains the authority.
func (s *Service) SignUp(ctx context.Context, email, plainPassword string) (*user.User, error) {
	_, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, models.ErrEmailAlreadyRegistered
	}

	passwordHash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	return s.db.CreateUser(ctx, email, passwordHash)
}

// Login authenticates an account by email and password.
// An unknown email and a wrong password both yield
// models.ErrInvalidCredentials, so the caller cannot tell them apart.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*user.User, error) {
	usr, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrInvalidCredentials
	}

	if !password.Verify(plainPassword, usr.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	return usr, nil
}

// AddPost validates the text byte length, stores the post, and invalidates
// the user's cache entry so a following read observes the new post.
func (s *Service) AddPost(ctx context.Context, userID int, text string) (models.Post, error) {
	if len(text) == 0 {
		return models.Post{}, models.ErrPostTextEmpty
	}
	if len(text) > models.MaxPostTextBytes {
		return models.Post{}, models.ErrPostTextTooLarge
	}

	post, err := s.db.CreatePost(ctx, userID, text)
	if err != nil {
		return models.Post{}, err
	}

	s.cache.Invalidate(userID)

	return post, nil
}

// GetPosts returns the posts of the user through the read-through cache.
func (s *Service) GetPosts(ctx context.Context, userID int) ([]models.Post, error) {
	return s.cache.GetOrLoad(ctx, userID, s.db.ListPosts)
}

// DeletePost deletes the post when it is owned by userID and invalidates the
// user's cache entry. An absent post and a post owned by someone else both
// yield models.ErrPostNotFound.
func (s *Service) DeletePost(ctx context.Context, userID, postID int) error {
	deleted, err := s.db.DeletePost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrPostNotFound
	}

	s.cache.Invalidate(userID)

	return nil
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns statistics such as total users and post count.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	posts, err := s.db.GetNumberOfPosts(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users: users,
		Posts: posts,
	}, nil
}
