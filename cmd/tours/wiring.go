package main

import (
	"context"

	"tours/config"
	"tours/internal/infra/auth"
	logs "tours/internal/infra/log"
	"tours/internal/infra/metrics"
	"tours/internal/infra/notification"
	"tours/internal/infra/persistence"
	"tours/internal/infra/ratelimit"
	"tours/internal/usecase/impl"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// coreOptions wires everything up to the usecases; the commands add their entry points.
func coreOptions() fx.Option {
	return fx.Options(
		injectInfra(),
		injectService(),
		injectUsecase(),
	)
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		persistence.New,
		ratelimit.NewRedisClient,
		newMetricsRegistry,
		newCredentialMetrics,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewResetTokenVault,
			notification.New,
			ratelimit.New,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialService,
			impl.NewTourService,
		),
	)
}

type metricsRegistryResult struct {
	fx.Out

	Registry *prometheus.Registry
	Gatherer prometheus.Gatherer
}

func newMetricsRegistry() metricsRegistryResult {
	reg := metrics.NewRegistry()

	return metricsRegistryResult{Registry: reg, Gatherer: reg}
}

func newCredentialMetrics(reg *prometheus.Registry) *metrics.CredentialMetrics {
	return metrics.New(reg)
}
