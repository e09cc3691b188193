package impl

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tours/internal/domain/entity"
	"tours/internal/domain/repository"
	"tours/internal/domain/service"
	"tours/internal/infra/auth"
	"tours/internal/infra/metrics"
	"tours/internal/infra/persistence/memory"
	"tours/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testEpoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type mockResetNotifier struct {
	mock.Mock
}

func (m *mockResetNotifier) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	args := m.Called(ctx, email, rawToken)

	return args.Error(0)
}

type mockRateLimiter struct {
	mock.Mock
}

func (m *mockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)

	return args.Bool(0), args.Error(1)
}

// countingHasher counts calls into the wrapped hasher.
type countingHasher struct {
	service.PasswordHasher
	hashes atomic.Int64
	checks atomic.Int64
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes.Add(1)

	return h.PasswordHasher.Hash(password)
}

func (h *countingHasher) Check(password, hash string) bool {
	h.checks.Add(1)

	return h.PasswordHasher.Check(password, hash)
}

// racingRepository runs beforeSave ahead of every Save, letting a test slip in a
// competing write between a caller's read and its compare-and-swap.
type racingRepository struct {
	repository.CredentialRepository
	beforeSave func(ctx context.Context, credential *entity.Credential)
}

func (r *racingRepository) Save(ctx context.Context, credential *entity.Credential) error {
	if r.beforeSave != nil {
		hook := r.beforeSave
		r.beforeSave = nil
		hook(ctx, credential)
	}

	return r.CredentialRepository.Save(ctx, credential)
}

type credentialFixture struct {
	svc      *credentialService
	repo     repository.CredentialRepository
	notifier *mockResetNotifier
	clock    *testClock
}

// newCredentialFixture wires the service to the in-memory repository, a real
// vault with the default ten minute validity and bcrypt at its minimum cost.
func newCredentialFixture(t *testing.T) *credentialFixture {
	t.Helper()

	repo := memory.NewCredentialRepository()
	notifier := &mockResetNotifier{}
	t.Cleanup(func() { notifier.AssertExpectations(t) })
	clock := &testClock{now: testEpoch}

	return &credentialFixture{
		svc: &credentialService{
			repo:              repo,
			hasher:            auth.NewBcryptHasherWithCost(bcrypt.MinCost),
			vault:             auth.NewResetTokenVaultWithSource(auth.DefaultResetTokenTTL, rand.Reader),
			notifier:          notifier,
			validate:          validator.New(),
			minPasswordLength: defaultMinPasswordLength,
			now:               clock.Now,
			logger:            newDiscardLogger(),
		},
		repo:     repo,
		notifier: notifier,
		clock:    clock,
	}
}

func (f *credentialFixture) withMetrics(m *metrics.CredentialMetrics) *credentialFixture {
	f.svc.metrics = m

	return f
}

func (f *credentialFixture) create(t *testing.T, email, password string) *entity.Credential {
	t.Helper()

	credential, err := f.svc.CreateCredential(context.Background(), &usecase.CreateCredentialInput{
		Name:            "Test User",
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)

	return credential
}

// requestReset issues a reset token, expecting exactly one delivery to email.
func (f *credentialFixture) requestReset(t *testing.T, email string) string {
	t.Helper()

	f.notifier.On("SendPasswordReset", mock.Anything, email, mock.AnythingOfType("string")).Return(nil).Once()
	raw, err := f.svc.RequestPasswordReset(context.Background(), email)
	require.NoError(t, err)

	return raw
}
