// Package persistence selects the storage backend named by storage.driver.
package persistence

import (
	"log/slog"

	"tours/config"
	"tours/internal/domain/repository"
	"tours/internal/infra/persistence/memory"
	"tours/internal/infra/persistence/mongo"
	"tours/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Result exposes the repositories of the selected backend to the container.
type Result struct {
	fx.Out

	Credentials repository.CredentialRepository
	Tours       repository.TourRepository
}

// New builds the repositories for the configured storage driver.
func New(params Params) (Result, error) {
	switch params.Config.Storage.Driver {
	case config.StorageMongo:
		db, err := mongo.New(mongo.Params{Lifecycle: params.Lifecycle, Config: params.Config, Logger: params.Logger})
		if err != nil {
			return Result{}, err
		}

		return Result{
			Credentials: mongo.NewCredentialRepository(db),
			Tours:       mongo.NewTourRepository(db),
		}, nil
	case config.StoragePostgres:
		db, err := postgres.New(postgres.Params{Lifecycle: params.Lifecycle, Config: params.Config, Logger: params.Logger})
		if err != nil {
			return Result{}, err
		}

		return Result{
			Credentials: postgres.NewCredentialRepository(db),
			Tours:       postgres.NewTourRepository(db),
		}, nil
	case config.StorageMemory:
		params.Logger.Warn("Using in-memory storage; data is lost on restart")

		return Result{
			Credentials: memory.NewCredentialRepository(),
			Tours:       memory.NewTourRepository(),
		}, nil
	default:
		return Result{}, errors.Errorf("unknown storage driver %q", params.Config.Storage.Driver)
	}
}
