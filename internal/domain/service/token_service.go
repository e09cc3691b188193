package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims for session tokens.
type Claims struct {
	CredentialID uuid.UUID `json:"-"`
	Role         string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssuedAtUnix returns the iat claim in seconds, or 0 when absent.
func (c *Claims) IssuedAtUnix() int64 {
	if c.IssuedAt == nil {
		return 0
	}

	return c.IssuedAt.Unix()
}

// TokenService defines the interface for generating and validating session tokens.
type TokenService interface {
	// GenerateToken creates a signed session token for the credential.
	GenerateToken(credentialID uuid.UUID, role string) (string, error)

	// ValidateToken checks signature and expiry and returns the claims.
	ValidateToken(tokenString string) (*Claims, error)

	// TokenTTL returns how long issued tokens stay valid.
	TokenTTL() time.Duration
}
