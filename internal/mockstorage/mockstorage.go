// Package mockstorage provides a testify-based mock implementation
// of the storage interface used by the service and router packages.
// It is used for unit testing HTTP handlers by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/miniblog/internal/models"
	"github.com/patric-chuzhbe/miniblog/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
//
// Use it in router and service tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, email, passwordHash string) (*user.User, error) {
	args := m.Called(ctx, email, passwordHash)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// FindUserByEmail mocks the lookup of a user by email.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks the lookup of a user by id.
func (m *StorageMock) FindUserByID(ctx context.Context, id int) (*user.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// CreatePost mocks the insertion of a post.
func (m *StorageMock) CreatePost(ctx context.Context, userID int, text string) (models.Post, error) {
	args := m.Called(ctx, userID, text)
	return args.Get(0).(models.Post), args.Error(1)
}

// ListPosts mocks fetching the posts of a user.
func (m *StorageMock) ListPosts(ctx context.Context, userID int) ([]models.Post, error) {
	args := m.Called(ctx, userID)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

// DeletePost mocks the owner-scoped deletion of a post.
func (m *StorageMock) DeletePost(ctx context.Context, userID, postID int) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

// GetNumberOfUsers mocks the users total used by the stats endpoint.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfPosts mocks the posts total used by the stats endpoint.
func (m *StorageMock) GetNumberOfPosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
