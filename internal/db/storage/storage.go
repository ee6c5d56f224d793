package storage

import (
	"context"

	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

type Storage interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*user.User, error)

	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	FindUserByID(ctx context.Context, id int) (*user.User, bool, error)

	CreatePost(ctx context.Context, userID int, text string) (models.Post, error)

	ListPosts(ctx context.Context, userID int) ([]models.Post, error)

	DeletePost(ctx context.Context, userID, postID int) (bool, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfPosts(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
