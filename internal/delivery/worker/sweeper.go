// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tours/config"
	"tours/internal/delivery"
	"tours/internal/domain/lifecycle"
	"tours/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// expiredResetSweeper is the slice of the credential usecase the sweeper drives.
type expiredResetSweeper interface {
	SweepExpiredResets(ctx context.Context) (int64, error)
}

// resetSweeper periodically clears password reset tokens whose expiry has passed.
type resetSweeper struct {
	credentials expiredResetSweeper
	interval    time.Duration
	logger      *slog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// SweeperParams holds dependencies for the reset sweeper, injected by Fx.
type SweeperParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	Credentials usecase.CredentialUsecase
}

// NewResetSweeper creates the sweeper delivery. A negative auth.resetSweepInterval disables it.
func NewResetSweeper(params SweeperParams) delivery.Delivery {
	var interval time.Duration
	if params.Cfg.Auth != nil {
		interval = params.Cfg.Auth.ResetSweepInterval
	}

	sweeper := newResetSweeper(params.Credentials, interval, params.Logger)
	params.Lc.Append(fx.Hook{
		OnStop: sweeper.stop,
	})

	return sweeper
}

func newResetSweeper(credentials expiredResetSweeper, interval time.Duration, logger *slog.Logger) *resetSweeper {
	return &resetSweeper{
		credentials: credentials,
		interval:    interval,
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Serve sweeps once per interval until ctx is cancelled or the sweeper is stopped.
func (s *resetSweeper) Serve(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("reset sweeper already running")
	}
	defer close(s.doneCh)

	if s.interval <= 0 {
		s.logger.Info("Reset sweeper disabled")

		return nil
	}

	s.logger.Info("Starting reset sweeper", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *resetSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	if _, err := s.credentials.SweepExpiredResets(sweepCtx); err != nil {
		s.logger.Error("Reset sweep failed", slog.Any("error", err))
	}
}

// stop signals Serve to return and waits for it, bounded by ctx.
func (s *resetSweeper) stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "reset sweeper did not stop in time")
	}
}
