package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/miniblog/internal/db/jsondb"
	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	theDB := &jsondb.JSONDB{
		Cache: jsondb.CacheStruct{
			UsersByID:     map[int]*user.User{},
			UserIDByEmail: map[string]int{},
			PostsByID:     map[int]models.Post{},
			UserPostIDs:   map[int][]int{},
			NextUserID:    1,
			NextPostID:    1,
		},
	}

	return &MemoryStorage{JSONDB: theDB}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
