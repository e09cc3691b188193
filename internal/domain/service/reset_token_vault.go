package service

import "time"

// ResetToken is a freshly issued password reset token.
// Raw leaves the process exactly once, through the notifier; only Digest is stored.
type ResetToken struct {
	Raw       string
	Digest    string
	ExpiresAt time.Time
}

// ResetTokenVault issues reset tokens and checks candidates against stored digests.
type ResetTokenVault interface {
	// Issue generates a new token that expires one TTL after now.
	Issue(now time.Time) (*ResetToken, error)

	// Digest returns the storable digest of a raw token.
	Digest(raw string) string

	// Matches reports whether candidate hashes to storedDigest.
	Matches(candidate, storedDigest string) bool
}
