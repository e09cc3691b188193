// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"
	"tours/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// credentialRepository implements repository.CredentialRepository using GORM.
type credentialRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db, now: time.Now}
}

func (repo *credentialRepository) Create(ctx context.Context, credential *entity.Credential) error {
	if credential.ID == uuid.Nil {
		credential.ID = uuid.New()
	}
	now := repo.now()
	credential.Email = entity.NormalizeIdentifier(credential.Email)
	credential.Version = 1
	credential.CreatedAt = now
	credential.UpdatedAt = now

	credentialM := toCredentialModel(credential)
	if err := repo.db.WithContext(ctx).Create(credentialM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return errors.WithStack(repository.ErrCredentialExists)
		}

		return domainerrors.NewDatabaseExecuteError(err, "create credential")
	}

	return nil
}

func (repo *credentialRepository) Load(ctx context.Context, email string) (*entity.Credential, error) {
	return repo.first(ctx, "email = ?", entity.NormalizeIdentifier(email))
}

func (repo *credentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error) {
	return repo.first(ctx, "id = ?", id)
}

func (repo *credentialRepository) FindByResetDigest(ctx context.Context, digest string) (*entity.Credential, error) {
	if digest == "" {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	return repo.first(ctx, "password_reset_digest = ?", digest)
}

// Save issues UPDATE ... WHERE id = ? AND version = ?; zero affected rows means the CAS lost.
func (repo *credentialRepository) Save(ctx context.Context, credential *entity.Credential) error {
	credentialM := toCredentialModel(credential)
	updatedAt := repo.now()

	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ? AND version = ?", credential.ID, credential.Version).
		Updates(map[string]any{
			"email":                     entity.NormalizeIdentifier(credentialM.Email),
			"name":                      credentialM.Name,
			"photo":                     credentialM.Photo,
			"role":                      credentialM.Role,
			"password_hash":             credentialM.Password,
			"password_changed_at":       credentialM.PasswordChangedAt,
			"password_reset_digest":     credentialM.PasswordResetDigest,
			"password_reset_expires_at": credentialM.PasswordResetExpiresAt,
			"version":                   gorm.Expr("version + 1"),
			"updated_at":                updatedAt,
		})
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return errors.WithStack(repository.ErrCredentialExists)
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "save credential")
	}

	if result.RowsAffected == 0 {
		if _, err := repo.FindByID(ctx, credential.ID); err != nil {
			return err
		}

		return errors.WithStack(repository.ErrConcurrentUpdate)
	}

	credential.Email = entity.NormalizeIdentifier(credential.Email)
	credential.Version++
	credential.UpdatedAt = updatedAt

	return nil
}

func (repo *credentialRepository) ClearExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= ?", now).
		Updates(map[string]any{
			"password_reset_digest":     nil,
			"password_reset_expires_at": nil,
			"version":                   gorm.Expr("version + 1"),
			"updated_at":                repo.now(),
		})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "clear expired resets")
	}

	return result.RowsAffected, nil
}

func (repo *credentialRepository) first(ctx context.Context, query string, args ...any) (*entity.Credential, error) {
	var credentialM model.CredentialModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&credentialM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(repository.ErrCredentialNotFound)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "find credential")
	}

	return toCredentialDomain(&credentialM), nil
}
