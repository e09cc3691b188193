package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/service"
	"tours/internal/infra/auth"
	"tours/internal/infra/metrics"
	"tours/internal/infra/persistence/memory"
	"tours/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentialService_ResetLifecycle(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()

	created := f.create(t, "a@b.com", "longenough1")
	assert.Nil(t, created.PasswordChangedAt)
	assert.EqualValues(t, 1, created.Version)

	_, err := f.svc.VerifyLogin(ctx, "a@b.com", "longenough1")
	require.NoError(t, err)

	raw := f.requestReset(t, "a@b.com")
	assert.Len(t, raw, 64)
	_, err = hex.DecodeString(raw)
	require.NoError(t, err)

	stored, err := f.repo.Load(ctx, "a@b.com")
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(raw))
	assert.Equal(t, hex.EncodeToString(sum[:]), stored.PasswordResetDigest)
	assert.NotEqual(t, raw, stored.PasswordResetDigest)
	require.NotNil(t, stored.PasswordResetExpiresAt)
	assert.True(t, stored.PasswordResetExpiresAt.Equal(testEpoch.Add(600*time.Second)))
	assert.Equal(t, entity.CredentialStateResetPending, stored.State(testEpoch))

	// A session issued before the reset is consumed.
	oldSessionIAT := testEpoch.Unix()

	consumeAt := testEpoch.Add(599 * time.Second)
	f.clock.Set(consumeAt)
	updated, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token:           raw,
		Email:           "a@b.com",
		Password:        "brandnew123",
		PasswordConfirm: "brandnew123",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordChangedAt)
	assert.True(t, updated.PasswordChangedAt.Equal(consumeAt.Add(-time.Second)))
	assert.False(t, updated.HasOutstandingReset())

	_, err = f.svc.VerifyLogin(ctx, "a@b.com", "longenough1")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = f.svc.VerifyLogin(ctx, "a@b.com", "brandnew123")
	assert.NoError(t, err)

	valid, err := f.svc.IsSessionStillValid(ctx, "a@b.com", oldSessionIAT)
	require.NoError(t, err)
	assert.False(t, valid)

	// A token issued right after the reset completes survives.
	valid, err = f.svc.IsSessionStillValid(ctx, "a@b.com", consumeAt.Unix())
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCredentialService_SessionBoundary(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	changeAt := testEpoch.Add(time.Hour)
	f.clock.Set(changeAt)
	_, err := f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email:           "a@b.com",
		CurrentPassword: "longenough1",
		Password:        "longenough2",
		PasswordConfirm: "longenough2",
	})
	require.NoError(t, err)

	stamp := changeAt.Add(-time.Second).Unix()
	tests := []struct {
		name string
		iat  int64
		want bool
	}{
		{name: "issued one second before the stamp", iat: stamp - 1, want: false},
		{name: "issued at the stamp", iat: stamp, want: true},
		{name: "issued in the change's own second", iat: changeAt.Unix(), want: true},
		{name: "issued long before", iat: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := f.svc.IsSessionStillValid(ctx, "a@b.com", tt.iat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, valid)
		})
	}
}

func TestCredentialService_NeverChangedHonoursAnySession(t *testing.T) {
	f := newCredentialFixture(t)
	f.create(t, "a@b.com", "longenough1")

	valid, err := f.svc.IsSessionStillValid(context.Background(), "A@B.com", 0)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestCredentialService_IsSessionStillValid_UnknownIdentifier(t *testing.T) {
	f := newCredentialFixture(t)

	valid, err := f.svc.IsSessionStillValid(context.Background(), "nobody@example.com", 0)
	assert.False(t, valid)
	assert.ErrorIs(t, err, domainerrors.ErrCredentialNotFound)
}

func TestCredentialService_ConsumeIsSingleUse(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	input := &usecase.ConsumeResetInput{Token: raw, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123"}
	_, err := f.svc.ConsumePasswordReset(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.ConsumePasswordReset(ctx, input)
	assert.ErrorIs(t, err, domainerrors.ErrResetTokenMismatch)
}

func TestCredentialService_ConsumeExpired(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "exactly at expiry", elapsed: 600 * time.Second, wantErr: domainerrors.ErrResetTokenExpired},
		{name: "well past expiry", elapsed: time.Hour, wantErr: domainerrors.ErrResetTokenExpired},
		{name: "one second before expiry", elapsed: 599 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCredentialFixture(t)
			ctx := context.Background()
			f.create(t, "a@b.com", "longenough1")
			raw := f.requestReset(t, "a@b.com")

			f.clock.Set(testEpoch.Add(tt.elapsed))
			_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
				Token: raw, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tt.wantErr)

			// The old password still works after a failed consume.
			_, err = f.svc.VerifyLogin(ctx, "a@b.com", "longenough1")
			assert.NoError(t, err)
		})
	}
}

func TestCredentialService_ConsumeMismatch(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	f.create(t, "c@d.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	tests := []struct {
		name  string
		input usecase.ConsumeResetInput
	}{
		{name: "empty token", input: usecase.ConsumeResetInput{Email: "a@b.com"}},
		{name: "wrong token", input: usecase.ConsumeResetInput{Token: raw[:63] + "x", Email: "a@b.com"}},
		{name: "token for another identifier", input: usecase.ConsumeResetInput{Token: raw, Email: "c@d.com"}},
		{name: "unknown identifier", input: usecase.ConsumeResetInput{Token: raw, Email: "e@f.com"}},
		{name: "unknown token without identifier", input: usecase.ConsumeResetInput{Token: "deadbeef"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			input.Password = "brandnew123"
			input.PasswordConfirm = "brandnew123"

			_, err := f.svc.ConsumePasswordReset(ctx, &input)
			assert.ErrorIs(t, err, domainerrors.ErrResetTokenMismatch)
		})
	}

	// None of the failed attempts spent the token.
	_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: raw, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
	})
	assert.NoError(t, err)
}

func TestCredentialService_ConsumeByTokenDigestAlone(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	created := f.create(t, "a@b.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	updated, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: raw, Password: "brandnew123", PasswordConfirm: "brandnew123",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func TestCredentialService_ReissueReplacesOutstandingToken(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	first := f.requestReset(t, "a@b.com")
	second := f.requestReset(t, "a@b.com")
	assert.NotEqual(t, first, second)

	_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: first, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrResetTokenMismatch)

	_, err = f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: second, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
	})
	assert.NoError(t, err)
}

func TestCredentialService_ConcurrentConsumeExactlyOneWins(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	const consumers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
				Token: raw, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++

				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.ErrorIs(t, err, domainerrors.ErrResetTokenMismatch)
	}
}

func TestCredentialService_ConsumeLosingRaceReportsMismatch(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	base := f.repo
	f.svc.repo = &racingRepository{
		CredentialRepository: base,
		beforeSave: func(ctx context.Context, _ *entity.Credential) {
			winner, err := base.Load(ctx, "a@b.com")
			require.NoError(t, err)
			winner.ClearReset()
			require.NoError(t, base.Save(ctx, winner))
		},
	}

	_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: raw, Email: "a@b.com", Password: "brandnew123", PasswordConfirm: "brandnew123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrResetTokenMismatch)
}

func TestCredentialService_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  bool
	}{
		{name: "seven characters", password: "1234567", confirm: "1234567", wantErr: true},
		{name: "eight characters", password: "12345678", confirm: "12345678"},
		{name: "confirmation differs", password: "longenough1", confirm: "longenough2", wantErr: true},
		{name: "at the bcrypt limit", password: strings.Repeat("a", service.MaxPasswordBytes), confirm: strings.Repeat("a", service.MaxPasswordBytes)},
		{name: "over the bcrypt limit", password: strings.Repeat("a", service.MaxPasswordBytes+1), confirm: strings.Repeat("a", service.MaxPasswordBytes+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCredentialFixture(t)
			ctx := context.Background()

			_, err := f.svc.CreateCredential(ctx, &usecase.CreateCredentialInput{
				Email: "a@b.com", Password: tt.password, PasswordConfirm: tt.confirm,
			})
			if !tt.wantErr {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

			_, err = f.repo.Load(ctx, "a@b.com")
			assert.Error(t, err, "rejected input must not be stored")
		})
	}
}

func TestCredentialService_ConsumeRejectsWeakPasswordAndKeepsToken(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	raw := f.requestReset(t, "a@b.com")

	_, err := f.svc.ConsumePasswordReset(ctx, &usecase.ConsumeResetInput{
		Token: raw, Email: "a@b.com", Password: "short", PasswordConfirm: "short",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	stored, err := f.repo.Load(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, stored.HasOutstandingReset())
	assert.Nil(t, stored.PasswordChangedAt)
}

func TestCredentialService_CreateCredential(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()

	created := f.create(t, "  Jonas@Example.COM ", "longenough1")
	assert.Equal(t, "jonas@example.com", created.Email)
	assert.Equal(t, entity.RoleUser, created.Role)
	assert.NotEqual(t, "longenough1", created.PasswordHash)

	_, err := f.svc.CreateCredential(ctx, &usecase.CreateCredentialInput{
		Email: "JONAS@example.com", Password: "longenough1", PasswordConfirm: "longenough1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	_, err = f.svc.CreateCredential(ctx, &usecase.CreateCredentialInput{
		Email: "not-an-email", Password: "longenough1", PasswordConfirm: "longenough1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = f.svc.CreateCredential(ctx, &usecase.CreateCredentialInput{
		Email: "root@example.com", Role: "superuser", Password: "longenough1", PasswordConfirm: "longenough1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestCredentialService_VerifyLoginFailsUniformly(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	_, unknownErr := f.svc.VerifyLogin(ctx, "nobody@b.com", "longenough1")
	_, wrongErr := f.svc.VerifyLogin(ctx, "a@b.com", "wrongpassword")
	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())

	_, err := f.svc.VerifyLogin(ctx, "", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	credential, err := f.svc.VerifyLogin(ctx, "A@B.COM", "longenough1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", credential.Email)
}

func TestCredentialService_VerifyLoginComparesOneHashOnEveryRejection(t *testing.T) {
	f := newCredentialFixture(t)
	hasher := &countingHasher{PasswordHasher: f.svc.hasher}
	f.svc.hasher = hasher
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	require.NoError(t, f.repo.Create(ctx, &entity.Credential{Email: "nohash@b.com", Role: entity.RoleUser}))
	hashesBefore := hasher.hashes.Load()

	tests := []struct {
		name  string
		email string
	}{
		{name: "unknown identifier", email: "nobody@b.com"},
		{name: "no usable hash", email: "nohash@b.com"},
		{name: "wrong password", email: "a@b.com"},
		{name: "unknown identifier again", email: "other@b.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksBefore := hasher.checks.Load()

			_, err := f.svc.VerifyLogin(ctx, tt.email, "wrongpassword")

			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
			assert.Equal(t, int64(1), hasher.checks.Load()-checksBefore)
		})
	}

	// The placeholder is hashed once and reused.
	assert.Equal(t, hashesBefore+1, hasher.hashes.Load())
}

func TestNewCredentialService_HashesLoginPlaceholderUpFront(t *testing.T) {
	hasher := &countingHasher{PasswordHasher: auth.NewBcryptHasherWithCost(bcrypt.MinCost)}
	svc := NewCredentialService(CredentialServiceParams{
		Repo:     memory.NewCredentialRepository(),
		Hasher:   hasher,
		Vault:    auth.NewResetTokenVaultWithSource(auth.DefaultResetTokenTTL, rand.Reader),
		Notifier: &mockResetNotifier{},
		Logger:   newDiscardLogger(),
	})
	require.Equal(t, int64(1), hasher.hashes.Load())

	_, err := svc.VerifyLogin(context.Background(), "nobody@b.com", "longenough1")

	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, int64(1), hasher.hashes.Load())
	assert.Equal(t, int64(1), hasher.checks.Load())
}

func TestCredentialService_ChangePassword(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	f.requestReset(t, "a@b.com")

	_, err := f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email: "a@b.com", CurrentPassword: "wrongpassword", Password: "longenough2", PasswordConfirm: "longenough2",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email: "missing@b.com", CurrentPassword: "longenough1", Password: "longenough2", PasswordConfirm: "longenough2",
	})
	assert.ErrorIs(t, err, domainerrors.ErrCredentialNotFound)

	updated, err := f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email: "a@b.com", CurrentPassword: "longenough1", Password: "longenough2", PasswordConfirm: "longenough2",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordChangedAt)
	assert.True(t, updated.PasswordChangedAt.Equal(testEpoch.Add(-time.Second)))
	assert.False(t, updated.HasOutstandingReset(), "a change voids any outstanding reset")
}

func TestCredentialService_ChangePasswordConflict(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	base := f.repo
	f.svc.repo = &racingRepository{
		CredentialRepository: base,
		beforeSave: func(ctx context.Context, _ *entity.Credential) {
			other, err := base.Load(ctx, "a@b.com")
			require.NoError(t, err)
			other.Name = "Renamed"
			require.NoError(t, base.Save(ctx, other))
		},
	}

	_, err := f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email: "a@b.com", CurrentPassword: "longenough1", Password: "longenough2", PasswordConfirm: "longenough2",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	_, err = f.svc.VerifyLogin(ctx, "a@b.com", "longenough1")
	assert.NoError(t, err, "the losing write must leave the stored hash untouched")
}

func TestCredentialService_RequestResetRetriesOnceAfterConflict(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	base := f.repo
	f.svc.repo = &racingRepository{
		CredentialRepository: base,
		beforeSave: func(ctx context.Context, _ *entity.Credential) {
			other, err := base.Load(ctx, "a@b.com")
			require.NoError(t, err)
			other.Photo = "new.jpg"
			require.NoError(t, base.Save(ctx, other))
		},
	}

	raw := f.requestReset(t, "a@b.com")

	stored, err := base.Load(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", stored.Photo)
	assert.True(t, f.svc.vault.Matches(raw, stored.PasswordResetDigest))
}

func TestCredentialService_RequestResetUnknownIdentifier(t *testing.T) {
	f := newCredentialFixture(t)

	_, err := f.svc.RequestPasswordReset(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, domainerrors.ErrCredentialNotFound)
	f.notifier.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestCredentialService_RequestResetDeliveryFailureRollsBack(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	f.notifier.On("SendPasswordReset", mock.Anything, "a@b.com", mock.AnythingOfType("string")).
		Return(errors.New("smtp: connection refused")).Once()

	raw, err := f.svc.RequestPasswordReset(ctx, "a@b.com")
	assert.ErrorIs(t, err, domainerrors.ErrResetDeliveryFailed)
	assert.Empty(t, raw)

	stored, err := f.repo.Load(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.HasOutstandingReset())
	assert.Equal(t, entity.CredentialStateFresh, stored.State(testEpoch))
}

func TestCredentialService_RequestResetRateLimited(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	limiter := &mockRateLimiter{}
	limiter.On("Allow", mock.Anything, "a@b.com").Return(false, nil).Once()
	f.svc.limiter = limiter

	_, err := f.svc.RequestPasswordReset(ctx, "A@b.com")
	assert.ErrorIs(t, err, domainerrors.ErrTooManyRequests)
	limiter.AssertExpectations(t)

	stored, err := f.repo.Load(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.HasOutstandingReset())
}

func TestCredentialService_RequestResetLimiterFailsOpen(t *testing.T) {
	f := newCredentialFixture(t)
	f.create(t, "a@b.com", "longenough1")

	limiter := &mockRateLimiter{}
	limiter.On("Allow", mock.Anything, "a@b.com").Return(false, errors.New("redis: connection refused")).Once()
	f.svc.limiter = limiter

	raw := f.requestReset(t, "a@b.com")
	assert.Len(t, raw, 64)
	limiter.AssertExpectations(t)
}

func TestCredentialService_ResolveSession(t *testing.T) {
	f := newCredentialFixture(t)
	ctx := context.Background()
	created := f.create(t, "a@b.com", "longenough1")

	credential, err := f.svc.ResolveSession(ctx, created.ID, testEpoch.Unix())
	require.NoError(t, err)
	assert.Equal(t, created.ID, credential.ID)

	_, err = f.svc.ResolveSession(ctx, uuid.New(), testEpoch.Unix())
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	f.clock.Set(testEpoch.Add(time.Minute))
	_, err = f.svc.ChangePassword(ctx, &usecase.ChangePasswordInput{
		Email: "a@b.com", CurrentPassword: "longenough1", Password: "longenough2", PasswordConfirm: "longenough2",
	})
	require.NoError(t, err)

	_, err = f.svc.ResolveSession(ctx, created.ID, testEpoch.Unix())
	assert.ErrorIs(t, err, domainerrors.ErrSessionRevoked)
}

func TestCredentialService_SweepExpiredResets(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := newCredentialFixture(t).withMetrics(m)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")
	f.create(t, "c@d.com", "longenough1")
	f.requestReset(t, "a@b.com")

	cleared, err := f.svc.SweepExpiredResets(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared, "a pending token is not swept")

	f.clock.Set(testEpoch.Add(10 * time.Minute))
	cleared, err = f.svc.SweepExpiredResets(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SweptResets), 0)

	stored, err := f.repo.Load(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.HasOutstandingReset())
}

func TestCredentialService_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := newCredentialFixture(t).withMetrics(m)
	ctx := context.Background()
	f.create(t, "a@b.com", "longenough1")

	_, _ = f.svc.VerifyLogin(ctx, "a@b.com", "wrongpassword")
	_, _ = f.svc.VerifyLogin(ctx, "a@b.com", "longenough1")

	assert.InDelta(t, 1, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OpCreate, metrics.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OpLogin, metrics.OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OpLogin, metrics.OutcomeSuccess)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HashDuration))
}
