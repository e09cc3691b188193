// Package handler contains the HTTP handlers for the API and the rendered pages.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"tours/config"
	apimiddleware "tours/internal/delivery/api/middleware"
	"tours/internal/delivery/api/response"
	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/service"
	"tours/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// logoutCookieTTL is how long the placeholder cookie written by Logout lives.
const logoutCookieTTL = 10 * time.Second

type signupRequest struct {
	Name            string `json:"name" form:"name" validate:"required,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Photo           string `json:"photo" form:"photo"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" form:"passwordCurrent" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required"`
}

// UserResponse is the public view of a credential. The hash and reset fields never leave the server.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Photo string    `json:"photo,omitempty"`
	Role  string    `json:"role"`
}

// AuthResponse is returned by every endpoint that logs the caller in.
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

func newUserResponse(credential *entity.Credential) *UserResponse {
	return &UserResponse{
		ID:    credential.ID,
		Name:  credential.Name,
		Email: credential.Email,
		Photo: credential.Photo,
		Role:  credential.Role.String(),
	}
}

// AuthHandler serves signup, login and the password lifecycle endpoints.
type AuthHandler struct {
	credentials  usecase.CredentialUsecase
	tokens       service.TokenService
	cookieName   string
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(credentials usecase.CredentialUsecase, tokens service.TokenService, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	h := &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		cookieName:  "jwt",
		logger:      logger,
	}
	if cfg.Session != nil {
		if cfg.Session.CookieName != "" {
			h.cookieName = cfg.Session.CookieName
		}
		h.cookieSecure = cfg.Session.CookieSecure
	}

	return h
}

// Signup registers a new credential and logs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid signup input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	credential, err := h.credentials.CreateCredential(c.Request().Context(), &usecase.CreateCredentialInput{
		Name:            req.Name,
		Email:           req.Email,
		Photo:           req.Photo,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.sendToken(c, http.StatusCreated, credential)
}

// Login verifies the password and issues a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}

	credential, err := h.credentials.VerifyLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.sendToken(c, http.StatusOK, credential)
}

// Logout overwrites the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    apimiddleware.LoggedOutCookieValue,
		Path:     "/",
		Expires:  time.Now().Add(logoutCookieTTL),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return response.Success(c, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ForgotPassword issues a reset token and mails it. The response is the same
// whether or not the address belongs to an account or the mail went out.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid forgot password input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	ctx := c.Request().Context()
	_, err := h.credentials.RequestPasswordReset(ctx, req.Email)
	switch {
	case errors.Is(err, domainerrors.ErrCredentialNotFound):
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Info("Password reset requested for unknown address")
	case errors.Is(err, domainerrors.ErrResetDeliveryFailed):
		deliverycontext.GetLoggerOrDefault(ctx, h.logger).Error("Password reset mail was not delivered", slog.Any("error", err))
	case err != nil:
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"message": "If that email address is registered, a reset link has been sent to it",
	})
}

// ResetPassword redeems the token from the URL and logs the caller in with the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid reset password input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	credential, err := h.credentials.ConsumePasswordReset(c.Request().Context(), &usecase.ConsumeResetInput{
		Token:           c.Param("token"),
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.sendToken(c, http.StatusOK, credential)
}

// UpdatePassword changes the logged-in caller's password and issues a fresh token;
// every older token stops working.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	current, ok := deliverycontext.GetCredential(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid update password input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	credential, err := h.credentials.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		Email:           current.Email,
		CurrentPassword: req.PasswordCurrent,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return h.sendToken(c, http.StatusOK, credential)
}

// Me returns the logged-in caller.
func (h *AuthHandler) Me(c echo.Context) error {
	credential, ok := deliverycontext.GetCredential(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	return response.Success(c, http.StatusOK, newUserResponse(credential))
}

// SweepExpiredResets clears every reset token past its expiry and reports how many were cleared.
func (h *AuthHandler) SweepExpiredResets(c echo.Context) error {
	cleared, err := h.credentials.SweepExpiredResets(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int64{"cleared": cleared})
}

func (h *AuthHandler) sendToken(c echo.Context, status int, credential *entity.Credential) error {
	token, err := h.tokens.GenerateToken(credential.ID, credential.Role.String())
	if err != nil {
		return errors.Wrap(domainerrors.ErrTokenGenerationFailed, err.Error())
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.TokenTTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return response.Success(c, status, &AuthResponse{
		Token: token,
		User:  newUserResponse(credential),
	})
}
