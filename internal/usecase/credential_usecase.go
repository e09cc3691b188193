// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"tours/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreateCredentialInput defines the data required to register a new identity.
type CreateCredentialInput struct {
	Name            string
	Email           string
	Photo           string
	Role            entity.Role
	Password        string
	PasswordConfirm string
}

// ChangePasswordInput defines the data required for an authenticated password change.
type ChangePasswordInput struct {
	Email           string
	CurrentPassword string
	Password        string
	PasswordConfirm string
}

// ConsumeResetInput defines the data required to redeem a reset token.
// Email is optional; when empty the credential is found through the token digest.
type ConsumeResetInput struct {
	Token           string
	Email           string
	Password        string
	PasswordConfirm string
}

// CredentialUsecase is the credential and session-integrity core.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type CredentialUsecase interface {
	// CreateCredential hashes the password and stores a new credential with no change stamp.
	CreateCredential(ctx context.Context, input *CreateCredentialInput) (*entity.Credential, error)

	// VerifyLogin checks a password. Unknown identifiers and wrong passwords fail identically.
	VerifyLogin(ctx context.Context, email, password string) (*entity.Credential, error)

	// ChangePassword replaces the password after verifying the current one.
	ChangePassword(ctx context.Context, input *ChangePasswordInput) (*entity.Credential, error)

	// RequestPasswordReset issues a reset token, stores its digest and delivers the raw token.
	RequestPasswordReset(ctx context.Context, email string) (string, error)

	// ConsumePasswordReset redeems a reset token and sets the new password.
	ConsumePasswordReset(ctx context.Context, input *ConsumeResetInput) (*entity.Credential, error)

	// IsSessionStillValid reports whether a token issued at issuedAtUnix survives the last password change.
	IsSessionStillValid(ctx context.Context, email string, issuedAtUnix int64) (bool, error)

	// ResolveSession loads the session owner and rejects tokens predating a password change.
	ResolveSession(ctx context.Context, credentialID uuid.UUID, issuedAtUnix int64) (*entity.Credential, error)

	// SweepExpiredResets clears reset tokens past their expiry.
	SweepExpiredResets(ctx context.Context) (int64, error)
}
