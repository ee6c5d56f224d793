// Package models defines the request/response schemas of the HTTP API,
// the Post entity, and the sentinel errors shared between the storage,
// service, and router layers.
package models

import "errors"

// Post is a single text post owned by a user.
type Post struct {
	ID     int
	Text   string
	UserID int
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries the bearer token issued by /signup and /login.
type TokenResponse struct {
	Token string `json:"token"`
}

// AddPostRequest is the body of POST /addpost.
// The 1 MiB limit is enforced by the service layer because it is defined
// in bytes of the UTF-8 encoding, not in runes.
type AddPostRequest struct {
	Text string `json:"text" validate:"required"`
}

// PostResponse is the post shape returned by /addpost and /getposts.
type PostResponse struct {
	PostID int    `json:"postID"`
	Text   string `json:"text"`
}

// InternalStatsResponse is returned by GET /api/internal/stats.
type InternalStatsResponse struct {
	Users int64 `json:"users"`
	Posts int64 `json:"posts"`
}

// MaxPostTextBytes is the maximum allowed size of a post text,
// measured in bytes of its UTF-8 encoding.
const MaxPostTextBytes = 1024 * 1024

// ErrEmailAlreadyRegistered is returned when a signup email is already taken.
var ErrEmailAlreadyRegistered = errors.New("email already registered")

// ErrInvalidCredentials is returned on any login failure. It deliberately does
// not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrPostNotFound is returned when a post does not exist or is owned by
// another user. The two cases are indistinguishable on purpose.
var ErrPostNotFound = errors.New("post not found")

// ErrPostTextEmpty is returned for a post with an empty text.
var ErrPostTextEmpty = errors.New("post text must not be empty")

// ErrPostTextTooLarge is returned for a post text exceeding MaxPostTextBytes.
var ErrPostTextTooLarge = errors.New("post text exceeds 1MB limit")
