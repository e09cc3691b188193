// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CredentialState is the lifecycle state derived from a credential's reset fields.
// It is never persisted.
type CredentialState string

const (
	// CredentialStateFresh means no reset token is outstanding.
	CredentialStateFresh CredentialState = "fresh"
	// CredentialStateResetPending means a reset token is outstanding and not yet expired.
	CredentialStateResetPending CredentialState = "reset_pending"
	// CredentialStateResetExpired means a reset token is outstanding but past its expiry.
	// For authentication it behaves like Fresh; the sweeper clears it.
	CredentialStateResetExpired CredentialState = "reset_expired"
)

// Credential is the persisted identity of a user: who they are and how they prove it.
// One record exists per identifier (email).
type Credential struct {
	ID    uuid.UUID // Stable identifier, used as the session token subject.
	Email string    // Case-normalized login identifier, unique in storage.
	Name  string    // Display name.
	Photo string    // Profile photo file name.
	Role  Role      // Authorization role, defaults to RoleUser.

	PasswordHash      string     // bcrypt digest of the current password. Never exposed.
	PasswordChangedAt *time.Time // Set on every change after creation; nil for never-changed credentials.

	// Reset fields are either both set or both empty. Use SetReset and ClearReset.
	PasswordResetDigest    string     // sha256 hex digest of the outstanding raw reset token.
	PasswordResetExpiresAt *time.Time // Absolute expiry of the outstanding reset token.

	Version   int64 // Optimistic concurrency counter, managed by the repository.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeIdentifier trims and lowercases an email so lookups are case-insensitive.
func NormalizeIdentifier(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasUsablePassword reports whether the credential can authenticate with a password.
func (c *Credential) HasUsablePassword() bool {
	return c.PasswordHash != ""
}

// HasOutstandingReset reports whether a reset token was issued and not yet consumed or cleared.
func (c *Credential) HasOutstandingReset() bool {
	return c.PasswordResetDigest != "" && c.PasswordResetExpiresAt != nil
}

// State derives the lifecycle state at the given instant.
func (c *Credential) State(now time.Time) CredentialState {
	if !c.HasOutstandingReset() {
		return CredentialStateFresh
	}
	if c.PasswordResetExpiresAt.After(now) {
		return CredentialStateResetPending
	}

	return CredentialStateResetExpired
}

// SetReset records an outstanding reset token, replacing any previous one.
func (c *Credential) SetReset(digest string, expiresAt time.Time) {
	c.PasswordResetDigest = digest
	c.PasswordResetExpiresAt = &expiresAt
}

// ClearReset removes the outstanding reset token, if any.
func (c *Credential) ClearReset() {
	c.PasswordResetDigest = ""
	c.PasswordResetExpiresAt = nil
}

// SessionStillValid decides whether a session token issued at issuedAtUnix (seconds)
// survives the most recent password change.
//
// Both sides are compared at one-second resolution; the sub-second part of
// PasswordChangedAt is truncated. A credential that never changed its password
// invalidates nothing.
func (c *Credential) SessionStillValid(issuedAtUnix int64) bool {
	if c.PasswordChangedAt == nil {
		return true
	}

	return issuedAtUnix >= c.PasswordChangedAt.Unix()
}

// Clone returns a deep copy so callers never share mutable time pointers.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}

	cloned := *c
	if c.PasswordChangedAt != nil {
		changedAt := *c.PasswordChangedAt
		cloned.PasswordChangedAt = &changedAt
	}
	if c.PasswordResetExpiresAt != nil {
		expiresAt := *c.PasswordResetExpiresAt
		cloned.PasswordResetExpiresAt = &expiresAt
	}

	return &cloned
}
