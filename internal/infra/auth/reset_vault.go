package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"time"

	"tours/config"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/service"

	"github.com/pkg/errors"
)

// Reset token configuration.
const (
	ResetTokenBytes      = 32 // 32 bytes = 64 hex chars
	DefaultResetTokenTTL = 10 * time.Minute
)

// resetTokenVault issues reset tokens and stores only their sha256 digest.
type resetTokenVault struct {
	ttl     time.Duration
	entropy io.Reader
}

// NewResetTokenVault builds a vault with the configured token lifetime.
func NewResetTokenVault(cfg *config.Config) service.ResetTokenVault {
	ttl := DefaultResetTokenTTL
	if cfg != nil && cfg.Auth != nil && cfg.Auth.ResetTokenTTL > 0 {
		ttl = cfg.Auth.ResetTokenTTL
	}

	return NewResetTokenVaultWithSource(ttl, rand.Reader)
}

// NewResetTokenVaultWithSource builds a vault reading randomness from entropy.
func NewResetTokenVaultWithSource(ttl time.Duration, entropy io.Reader) service.ResetTokenVault {
	return &resetTokenVault{ttl: ttl, entropy: entropy}
}

// Issue generates a raw token, its digest and its absolute expiry.
func (v *resetTokenVault) Issue(now time.Time) (*service.ResetToken, error) {
	raw := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(v.entropy, raw); err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenGenerationFailed, err.Error())
	}

	token := hex.EncodeToString(raw)

	return &service.ResetToken{
		Raw:       token,
		Digest:    v.Digest(token),
		ExpiresAt: now.Add(v.ttl),
	}, nil
}

// Digest returns hex(sha256(raw)). The digest is unsalted so it can be looked up directly.
func (v *resetTokenVault) Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

// Matches recomputes the candidate digest and compares it in constant time.
func (v *resetTokenVault) Matches(candidate, storedDigest string) bool {
	if candidate == "" || storedDigest == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(v.Digest(candidate)), []byte(storedDigest)) == 1
}
