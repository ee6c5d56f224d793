// Package user defines the user model used throughout the application,
// particularly for authentication and post ownership.
package user

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, assigned by the storage.
	ID int

	// Email is the unique login identifier, stored as provided.
	Email string

	// PasswordHash is the bcrypt digest of the user's password.
	// It is never serialized into responses.
	PasswordHash string
}
