// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"tours/config"
	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"
	"tours/internal/domain/service"
	"tours/internal/infra/metrics"
	"tours/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultMinPasswordLength = 8

	// placeholderPassword is hashed once; logins without a stored hash are checked against it.
	placeholderPassword = "tours-placeholder-credential"

	// changeStampSkew backdates PasswordChangedAt so a token issued in the same
	// second as the change (e.g. the re-login right after it) stays valid.
	changeStampSkew = time.Second
)

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	repo              repository.CredentialRepository
	hasher            service.PasswordHasher
	vault             service.ResetTokenVault
	notifier          service.ResetNotifier
	limiter           service.RateLimiter
	metrics           *metrics.CredentialMetrics
	validate          *validator.Validate
	minPasswordLength int
	now               func() time.Time
	logger            *slog.Logger

	placeholderOnce sync.Once
	placeholderHash string
}

// CredentialServiceParams holds dependencies for credentialService, injected by Fx.
type CredentialServiceParams struct {
	fx.In

	Repo     repository.CredentialRepository
	Hasher   service.PasswordHasher
	Vault    service.ResetTokenVault
	Notifier service.ResetNotifier
	Limiter  service.RateLimiter        `optional:"true"`
	Metrics  *metrics.CredentialMetrics `optional:"true"`
	Config   *config.Config
	Logger   *slog.Logger
}

// NewCredentialService is the constructor for credentialService.
func NewCredentialService(params CredentialServiceParams) usecase.CredentialUsecase {
	minLength := defaultMinPasswordLength
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.MinPasswordLength > 0 {
		minLength = params.Config.Auth.MinPasswordLength
	}

	srv := &credentialService{
		repo:              params.Repo,
		hasher:            params.Hasher,
		vault:             params.Vault,
		notifier:          params.Notifier,
		limiter:           params.Limiter,
		metrics:           params.Metrics,
		validate:          validator.New(),
		minPasswordLength: minLength,
		now:               time.Now,
		logger:            params.Logger,
	}
	srv.loadPlaceholderHash()

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateCredential validates the input, hashes the password once and stores the record.
func (srv *credentialService) CreateCredential(ctx context.Context, input *usecase.CreateCredentialInput) (*entity.Credential, error) {
	email, err := srv.validateIdentifier(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = entity.RoleUser
	}
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails(fmt.Sprintf("role %q is not allowed", role))
	}
	if err := srv.validatePassword(input.Password, input.PasswordConfirm); err != nil {
		srv.metrics.RecordEvent(metrics.OpCreate, metrics.OutcomeRejected)

		return nil, err
	}

	hash, err := srv.hash(input.Password)
	if err != nil {
		return nil, err
	}

	credential := &entity.Credential{
		Email:        email,
		Name:         input.Name,
		Photo:        input.Photo,
		Role:         role,
		PasswordHash: hash,
	}
	if err := srv.repo.Create(ctx, credential); err != nil {
		if errors.Is(err, repository.ErrCredentialExists) {
			srv.metrics.RecordEvent(metrics.OpCreate, metrics.OutcomeRejected)

			return nil, domainerrors.ErrUserAlreadyExists
		}
		srv.metrics.RecordEvent(metrics.OpCreate, metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to create credential")
	}

	srv.metrics.RecordEvent(metrics.OpCreate, metrics.OutcomeSuccess)
	srv.log(ctx).Info("Credential created", slog.String("credentialID", credential.ID.String()))

	return credential, nil
}

// VerifyLogin reports ErrInvalidCredentials for unknown identifiers, unusable hashes and wrong passwords alike.
func (srv *credentialService) VerifyLogin(ctx context.Context, email, password string) (*entity.Credential, error) {
	if entity.NormalizeIdentifier(email) == "" || password == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("please provide email and password")
	}

	credential, err := srv.repo.Load(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.checkPlaceholder(password)
			srv.metrics.RecordEvent(metrics.OpLogin, metrics.OutcomeRejected)

			return nil, domainerrors.ErrInvalidCredentials
		}
		srv.metrics.RecordEvent(metrics.OpLogin, metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to load credential")
	}

	var matched bool
	if credential.HasUsablePassword() {
		matched = srv.hasher.Check(password, credential.PasswordHash)
	} else {
		srv.checkPlaceholder(password)
	}
	if !matched {
		srv.metrics.RecordEvent(metrics.OpLogin, metrics.OutcomeRejected)
		srv.log(ctx).Info("Login rejected", slog.String("credentialID", credential.ID.String()))

		return nil, domainerrors.ErrInvalidCredentials
	}

	srv.metrics.RecordEvent(metrics.OpLogin, metrics.OutcomeSuccess)

	return credential, nil
}

// ChangePassword verifies the current password and atomically stores the new hash,
// the change stamp and cleared reset fields.
func (srv *credentialService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) (*entity.Credential, error) {
	credential, err := srv.repo.Load(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, domainerrors.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to load credential")
	}

	if !credential.HasUsablePassword() || !srv.hasher.Check(input.CurrentPassword, credential.PasswordHash) {
		srv.metrics.RecordEvent(metrics.OpChange, metrics.OutcomeRejected)

		return nil, domainerrors.ErrInvalidCredentials
	}

	if err := srv.applyPasswordChange(credential, input.Password, input.PasswordConfirm); err != nil {
		srv.metrics.RecordEvent(metrics.OpChange, metrics.OutcomeRejected)

		return nil, err
	}

	if err := srv.repo.Save(ctx, credential); err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			srv.metrics.RecordEvent(metrics.OpChange, metrics.OutcomeConflict)

			return nil, domainerrors.ErrConflict
		}
		srv.metrics.RecordEvent(metrics.OpChange, metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to save credential")
	}

	srv.metrics.RecordEvent(metrics.OpChange, metrics.OutcomeSuccess)
	srv.log(ctx).Info("Password changed", slog.String("credentialID", credential.ID.String()))

	return credential, nil
}

// RequestPasswordReset issues a token, stores its digest and hands the raw token to the notifier.
// If delivery fails the reset fields are cleared again.
func (srv *credentialService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	identifier := entity.NormalizeIdentifier(email)
	if identifier == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("please provide your email address")
	}

	if err := srv.checkRateLimit(ctx, identifier); err != nil {
		srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeRejected)

		return "", err
	}

	credential, err := srv.repo.Load(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeRejected)

			return "", domainerrors.ErrCredentialNotFound
		}

		return "", errors.Wrap(err, "failed to load credential")
	}

	token, err := srv.vault.Issue(srv.now())
	if err != nil {
		srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeError)

		return "", err
	}

	credential, err = srv.storeReset(ctx, credential, token)
	if err != nil {
		return "", err
	}

	if err := srv.notifier.SendPasswordReset(ctx, credential.Email, token.Raw); err != nil {
		srv.log(ctx).Error("Password reset delivery failed",
			slog.String("credentialID", credential.ID.String()),
			slog.Any("error", err),
		)
		srv.rollbackReset(ctx, credential)
		srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeError)

		return "", domainerrors.ErrResetDeliveryFailed
	}

	srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeSuccess)
	srv.log(ctx).Info("Password reset issued",
		slog.String("credentialID", credential.ID.String()),
		slog.Time("expiresAt", token.ExpiresAt),
	)

	return token.Raw, nil
}

// storeReset saves the token digest. Concurrent requests race benignly: on a lost
// compare-and-swap the record is reloaded and the save retried once.
func (srv *credentialService) storeReset(ctx context.Context, credential *entity.Credential, token *service.ResetToken) (*entity.Credential, error) {
	credential.SetReset(token.Digest, token.ExpiresAt)
	err := srv.repo.Save(ctx, credential)
	if errors.Is(err, repository.ErrConcurrentUpdate) {
		credential, err = srv.repo.FindByID(ctx, credential.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to reload credential")
		}
		credential.SetReset(token.Digest, token.ExpiresAt)
		err = srv.repo.Save(ctx, credential)
	}

	if err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeConflict)

			return nil, domainerrors.ErrConflict
		}
		srv.metrics.RecordEvent(metrics.OpRequestReset, metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to store reset token")
	}

	return credential, nil
}

func (srv *credentialService) rollbackReset(ctx context.Context, credential *entity.Credential) {
	credential.ClearReset()
	if err := srv.repo.Save(ctx, credential); err != nil {
		srv.log(ctx).Warn("Could not clear undelivered reset token",
			slog.String("credentialID", credential.ID.String()),
			slog.Any("error", err),
		)
	}
}

// ConsumePasswordReset redeems a raw token. Every failure to locate or match the token
// reports ErrResetTokenMismatch; a matching token past its expiry reports ErrResetTokenExpired.
func (srv *credentialService) ConsumePasswordReset(ctx context.Context, input *usecase.ConsumeResetInput) (*entity.Credential, error) {
	if input.Token == "" {
		return nil, domainerrors.ErrResetTokenMismatch
	}
	digest := srv.vault.Digest(input.Token)

	credential, err := srv.loadForReset(ctx, input.Email, digest)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeRejected)

			return nil, domainerrors.ErrResetTokenMismatch
		}

		return nil, errors.Wrap(err, "failed to load credential")
	}

	now := srv.now()
	if !credential.HasOutstandingReset() || !srv.vault.Matches(input.Token, credential.PasswordResetDigest) {
		srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeRejected)

		return nil, domainerrors.ErrResetTokenMismatch
	}
	if credential.State(now) != entity.CredentialStateResetPending {
		srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeRejected)

		return nil, domainerrors.ErrResetTokenExpired
	}

	if err := srv.applyPasswordChange(credential, input.Password, input.PasswordConfirm); err != nil {
		srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeRejected)

		return nil, err
	}

	if err := srv.repo.Save(ctx, credential); err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			// Another consumer won the race and the token is spent.
			srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeConflict)

			return nil, domainerrors.ErrResetTokenMismatch
		}
		srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeError)

		return nil, errors.Wrap(err, "failed to save credential")
	}

	srv.metrics.RecordEvent(metrics.OpConsumeReset, metrics.OutcomeSuccess)
	srv.log(ctx).Info("Password reset completed", slog.String("credentialID", credential.ID.String()))

	return credential, nil
}

func (srv *credentialService) loadForReset(ctx context.Context, email, digest string) (*entity.Credential, error) {
	if entity.NormalizeIdentifier(email) != "" {
		return srv.repo.Load(ctx, email)
	}

	return srv.repo.FindByResetDigest(ctx, digest)
}

// IsSessionStillValid applies the session guard to the credential stored under email.
func (srv *credentialService) IsSessionStillValid(ctx context.Context, email string, issuedAtUnix int64) (bool, error) {
	credential, err := srv.repo.Load(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return false, domainerrors.ErrCredentialNotFound
		}

		return false, errors.Wrap(err, "failed to load credential")
	}

	return credential.SessionStillValid(issuedAtUnix), nil
}

// ResolveSession returns the owner of a session token if the token is still honoured.
func (srv *credentialService) ResolveSession(ctx context.Context, credentialID uuid.UUID, issuedAtUnix int64) (*entity.Credential, error) {
	credential, err := srv.repo.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.metrics.RecordEvent(metrics.OpSessionCheck, metrics.OutcomeRejected)

			return nil, domainerrors.ErrUnauthenticated.WithDetails("the user belonging to this token no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load credential")
	}

	if !credential.SessionStillValid(issuedAtUnix) {
		srv.metrics.RecordEvent(metrics.OpSessionCheck, metrics.OutcomeRejected)

		return nil, domainerrors.ErrSessionRevoked
	}

	srv.metrics.RecordEvent(metrics.OpSessionCheck, metrics.OutcomeSuccess)

	return credential, nil
}

// SweepExpiredResets clears every reset token whose expiry has passed.
func (srv *credentialService) SweepExpiredResets(ctx context.Context) (int64, error) {
	cleared, err := srv.repo.ClearExpiredResets(ctx, srv.now())
	if err != nil {
		srv.metrics.RecordEvent(metrics.OpSweepResets, metrics.OutcomeError)

		return 0, errors.Wrap(err, "failed to clear expired resets")
	}

	srv.metrics.RecordEvent(metrics.OpSweepResets, metrics.OutcomeSuccess)
	srv.metrics.AddSwept(cleared)
	if cleared > 0 {
		srv.log(ctx).Info("Cleared expired reset tokens", slog.Int64("count", cleared))
	}

	return cleared, nil
}

// applyPasswordChange validates and hashes the new password, stamps the change
// one second in the past and clears any outstanding reset.
func (srv *credentialService) applyPasswordChange(credential *entity.Credential, password, confirm string) error {
	if err := srv.validatePassword(password, confirm); err != nil {
		return err
	}

	hash, err := srv.hash(password)
	if err != nil {
		return err
	}

	changedAt := srv.now().Add(-changeStampSkew)
	credential.PasswordHash = hash
	credential.PasswordChangedAt = &changedAt
	credential.ClearReset()

	return nil
}

func (srv *credentialService) hash(password string) (string, error) {
	start := time.Now()
	hash, err := srv.hasher.Hash(password)
	srv.metrics.ObserveHash(time.Since(start))
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	return hash, nil
}

func (srv *credentialService) validateIdentifier(email string) (string, error) {
	identifier := entity.NormalizeIdentifier(email)
	if err := srv.validate.Var(identifier, "required,email"); err != nil {
		return "", domainerrors.ErrValidationFailed.WithDetails("please provide a valid email")
	}

	return identifier, nil
}

// loadPlaceholderHash hashes placeholderPassword at the hasher's cost the first time it is needed.
func (srv *credentialService) loadPlaceholderHash() string {
	srv.placeholderOnce.Do(func() {
		hash, err := srv.hasher.Hash(placeholderPassword)
		if err != nil {
			srv.logger.Warn("Failed to hash login placeholder", slog.Any("error", err))

			return
		}
		srv.placeholderHash = hash
	})

	return srv.placeholderHash
}

// checkPlaceholder spends one hash comparison so a login without a stored hash
// takes as long as a wrong password.
func (srv *credentialService) checkPlaceholder(password string) {
	srv.hasher.Check(password, srv.loadPlaceholderHash())
}

func (srv *credentialService) validatePassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < srv.minPasswordLength {
		return domainerrors.ErrValidationFailed.WithDetails(
			fmt.Sprintf("password must be at least %d characters", srv.minPasswordLength))
	}
	if len(password) > service.MaxPasswordBytes {
		return domainerrors.ErrValidationFailed.WithDetails(
			fmt.Sprintf("password must be at most %d bytes", service.MaxPasswordBytes))
	}
	if password != confirm {
		return domainerrors.ErrValidationFailed.WithDetails("passwords are not the same")
	}

	return nil
}

// checkRateLimit fails open when the limiter itself is unavailable.
func (srv *credentialService) checkRateLimit(ctx context.Context, identifier string) error {
	if srv.limiter == nil {
		return nil
	}

	allowed, err := srv.limiter.Allow(ctx, identifier)
	if err != nil {
		srv.log(ctx).Warn("Rate limiter unavailable", slog.Any("error", err))

		return nil
	}
	if !allowed {
		return domainerrors.ErrTooManyRequests
	}

	return nil
}
