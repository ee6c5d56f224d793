// Package password wraps bcrypt hashing and verification of user passwords.
// Plaintext never leaves this package in any form other than the digest.
package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a salted bcrypt digest of the plaintext. Hashing the same
// plaintext twice yields different digests, both of which verify.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. A malformed digest
// is treated the same as a wrong password; the comparison itself is
// constant-time inside bcrypt.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
