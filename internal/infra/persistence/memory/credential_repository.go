// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"tours/internal/domain/entity"
	"tours/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// credentialRepository keeps credentials in maps guarded by one mutex.
// Records are cloned on the way in and out so callers never alias stored state.
type credentialRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*entity.Credential
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewCredentialRepository creates an empty in-memory credential repository.
func NewCredentialRepository() repository.CredentialRepository {
	return &credentialRepository{
		byID:    make(map[uuid.UUID]*entity.Credential),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *credentialRepository) Create(_ context.Context, credential *entity.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := entity.NormalizeIdentifier(credential.Email)
	if _, exists := r.byEmail[email]; exists {
		return errors.WithStack(repository.ErrCredentialExists)
	}

	if credential.ID == uuid.Nil {
		credential.ID = uuid.New()
	}
	now := r.now()
	credential.Email = email
	credential.Version = 1
	credential.CreatedAt = now
	credential.UpdatedAt = now

	r.byID[credential.ID] = credential.Clone()
	r.byEmail[email] = credential.ID

	return nil
}

func (r *credentialRepository) Load(_ context.Context, email string) (*entity.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[entity.NormalizeIdentifier(email)]
	if !ok {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	return r.byID[id].Clone(), nil
}

func (r *credentialRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	return stored.Clone(), nil
}

func (r *credentialRepository) FindByResetDigest(_ context.Context, digest string) (*entity.Credential, error) {
	if digest == "" {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.byID {
		if stored.PasswordResetDigest == digest {
			return stored.Clone(), nil
		}
	}

	return nil, errors.WithStack(repository.ErrCredentialNotFound)
}

func (r *credentialRepository) Save(_ context.Context, credential *entity.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[credential.ID]
	if !ok {
		return errors.WithStack(repository.ErrCredentialNotFound)
	}
	if stored.Version != credential.Version {
		return errors.WithStack(repository.ErrConcurrentUpdate)
	}

	email := entity.NormalizeIdentifier(credential.Email)
	if email != stored.Email {
		if _, taken := r.byEmail[email]; taken {
			return errors.WithStack(repository.ErrCredentialExists)
		}
		delete(r.byEmail, stored.Email)
		r.byEmail[email] = credential.ID
	}

	credential.Email = email
	credential.Version++
	credential.UpdatedAt = r.now()
	r.byID[credential.ID] = credential.Clone()

	return nil
}

func (r *credentialRepository) ClearExpiredResets(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, stored := range r.byID {
		if stored.State(now) != entity.CredentialStateResetExpired {
			continue
		}
		stored.ClearReset()
		stored.Version++
		stored.UpdatedAt = r.now()
		cleared++
	}

	return cleared, nil
}
