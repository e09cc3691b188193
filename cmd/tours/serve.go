package main

import (
	"context"
	"log/slog"
	"os"

	"tours/internal/delivery"
	"tours/internal/delivery/api"
	apimiddleware "tours/internal/delivery/api/middleware"
	"tours/internal/delivery/api/router/handler"
	"tours/internal/delivery/worker"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the reset sweeper",
		RunE: func(*cobra.Command, []string) error {
			app := fx.New(
				coreOptions(),
				injectDelivery(),
				injectMiddleware(),
				injectHandler(),
				fx.Invoke(
					startServer,
				),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()

			return nil
		},
	}
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewTourHandler,
			handler.NewViewHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewResetSweeper,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
