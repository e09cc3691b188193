// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"tours/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrCredentialNotFound is returned when no credential matches the lookup.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrCredentialExists is returned by Create when the identifier is already taken.
	ErrCredentialExists = errors.New("credential already exists")

	// ErrConcurrentUpdate is returned by Save when the stored version no longer matches.
	ErrConcurrentUpdate = errors.New("credential was modified concurrently")
)

// CredentialRepository persists credential records.
//
// Every mutation goes through Save, which is an atomic compare-and-swap on
// Credential.Version. Implementations return copies; callers own what they get.
type CredentialRepository interface {
	// Create stores a new credential. Version is set to 1 on success.
	Create(ctx context.Context, credential *entity.Credential) error

	// Load retrieves a credential by its normalized identifier (email).
	Load(ctx context.Context, email string) (*entity.Credential, error)

	// FindByID retrieves a credential by its stable id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error)

	// FindByResetDigest retrieves the credential whose outstanding reset digest equals digest.
	FindByResetDigest(ctx context.Context, digest string) (*entity.Credential, error)

	// Save replaces the stored record if its version still equals credential.Version,
	// then increments credential.Version. Otherwise it returns ErrConcurrentUpdate.
	Save(ctx context.Context, credential *entity.Credential) error

	// ClearExpiredResets removes reset fields whose expiry is at or before now
	// and reports how many records were cleared.
	ClearExpiredResets(ctx context.Context, now time.Time) (int64, error)
}
