package main

import (
	"context"
	"time"

	"tours/config"
	"tours/internal/infra/seed"
	"tours/internal/usecase"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const defaultJobTimeout = time.Minute

// runJob starts the core container, hands the populated targets to job and stops the container.
func runJob(ctx context.Context, timeout time.Duration, job func(ctx context.Context) error, targets ...any) error {
	app := fx.New(
		coreOptions(),
		fx.NopLogger,
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "start application")
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	return job(ctx)
}

// NewSweepResetsCmd creates the sweep-resets subcommand.
func NewSweepResetsCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep-resets",
		Short: "Clear password reset tokens whose expiry has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var credentials usecase.CredentialUsecase

			return runJob(cmd.Context(), timeout, func(ctx context.Context) error {
				cleared, err := credentials.SweepExpiredResets(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("cleared %d expired reset tokens\n", cleared)

				return nil
			}, &credentials)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultJobTimeout, "timeout for the sweep")

	return cmd
}

// NewSeedToursCmd creates the seed-tours subcommand.
func NewSeedToursCmd() *cobra.Command {
	var (
		file    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed-tours",
		Short: "Replace the tour catalogue with the contents of a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				cfg   *config.Config
				tours usecase.TourUsecase
			)

			return runJob(cmd.Context(), timeout, func(ctx context.Context) error {
				seedFile := file
				if seedFile == "" {
					seedFile = cfg.Tours.SeedFile
				}
				if seedFile == "" {
					return errors.New("no seed file: pass --file or set tours.seedFile")
				}
				records, err := seed.LoadToursFile(seedFile)
				if err != nil {
					return err
				}
				if err := tours.SeedTours(ctx, records); err != nil {
					return err
				}
				cmd.Printf("seeded %d tours from %s\n", len(records), seedFile)

				return nil
			}, &cfg, &tours)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "seed file (defaults to tours.seedFile)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultJobTimeout, "timeout for database operations")

	return cmd
}
