package middleware

import (
	"strings"

	"tours/config"
	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/service"
	"tours/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// LoggedOutCookieValue overwrites the session cookie on logout.
const LoggedOutCookieValue = "loggedout"

// AuthMiddleware authenticates requests by session token and enforces roles.
type AuthMiddleware struct {
	tokens      service.TokenService
	credentials usecase.CredentialUsecase
	cookieName  string
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokens service.TokenService, credentials usecase.CredentialUsecase, cfg *config.Config) *AuthMiddleware {
	cookieName := "jwt"
	if cfg.Session != nil && cfg.Session.CookieName != "" {
		cookieName = cfg.Session.CookieName
	}

	return &AuthMiddleware{
		tokens:      tokens,
		credentials: credentials,
		cookieName:  cookieName,
	}
}

// Authenticate rejects requests without a valid, unrevoked session token.
// The token is read from a Bearer Authorization header, falling back to the session cookie.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		credential, err := m.resolve(c)
		if err != nil {
			return err
		}

		deliverycontext.SetCredential(c, credential)

		return next(c)
	}
}

// Identify attaches the credential when the request carries a valid session and
// otherwise lets the request through anonymously. Used by pages that render
// differently for logged-in users.
func (m *AuthMiddleware) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if credential, err := m.resolve(c); err == nil {
			deliverycontext.SetCredential(c, credential)
		}

		return next(c)
	}
}

// RequireRole allows the request only if the authenticated credential holds one of roles.
// It must be used after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	allowed := entity.Roles(roles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, ok := deliverycontext.GetCredential(c)
			if !ok {
				return domainerrors.ErrUnauthenticated
			}
			if !allowed.Contains(credential.Role) {
				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (*entity.Credential, error) {
	raw := m.extractToken(c)
	if raw == "" {
		return nil, domainerrors.ErrUnauthenticated
	}

	claims, err := m.tokens.ValidateToken(raw)
	if err != nil {
		return nil, domainerrors.ErrUnauthenticated.WithDetails("invalid or expired token")
	}

	credential, err := m.credentials.ResolveSession(c.Request().Context(), claims.CredentialID, claims.IssuedAtUnix())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return credential, nil
}

func (m *AuthMiddleware) extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	cookie, err := c.Cookie(m.cookieName)
	if err != nil || cookie.Value == LoggedOutCookieValue {
		return ""
	}

	return cookie.Value
}
