// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (bcrypt) from the credential lifecycle.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a hash in constant time.
	// A malformed hash never matches.
	Check(password, hash string) bool
}
