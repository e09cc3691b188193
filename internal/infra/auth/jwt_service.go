package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tours/config"
	"tours/internal/domain/service"
)

const defaultSessionTTL = 90 * 24 * time.Hour

// ErrInvalidToken is returned for malformed, forged or expired session tokens.
var ErrInvalidToken = errors.New("invalid session token")

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg == nil || cfg.SecretKey.Session == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	ttl := defaultSessionTTL
	if cfg.Session != nil && cfg.Session.TTL > 0 {
		ttl = cfg.Session.TTL
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.Session),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// GenerateToken signs a session token whose iat is the current second.
func (s *jwtService) GenerateToken(credentialID uuid.UUID, role string) (string, error) {
	now := s.now()
	claims := service.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credentialID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}

	return token, nil
}

// ValidateToken checks signature and expiry and resolves the credential id from sub.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	credentialID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, "subject is not a credential id")
	}
	if claims.IssuedAt == nil {
		return nil, errors.Wrap(ErrInvalidToken, "missing iat")
	}
	claims.CredentialID = credentialID

	return claims, nil
}

// TokenTTL returns the configured session lifetime.
func (s *jwtService) TokenTTL() time.Duration {
	return s.ttl
}
