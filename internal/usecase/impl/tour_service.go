package impl

import (
	"context"
	"log/slog"

	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"
	"tours/internal/usecase"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
)

type tourService struct {
	repo   repository.TourRepository
	logger *slog.Logger
}

// NewTourService is the constructor for tourService.
func NewTourService(repo repository.TourRepository, logger *slog.Logger) usecase.TourUsecase {
	return &tourService{
		repo:   repo,
		logger: logger,
	}
}

func (srv *tourService) ListTours(ctx context.Context) ([]*entity.Tour, error) {
	tours, err := srv.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tours")
	}

	return tours, nil
}

func (srv *tourService) GetTour(ctx context.Context, id uuid.UUID) (*entity.Tour, error) {
	tour, err := srv.repo.FindByID(ctx, id)
	if err != nil {
		return nil, srv.mapLookupError(err)
	}

	return tour, nil
}

func (srv *tourService) GetTourBySlug(ctx context.Context, tourSlug string) (*entity.Tour, error) {
	tour, err := srv.repo.FindBySlug(ctx, tourSlug)
	if err != nil {
		return nil, srv.mapLookupError(err)
	}

	return tour, nil
}

// SeedTours fills in ids and slugs where the seed data omits them and replaces the catalogue.
func (srv *tourService) SeedTours(ctx context.Context, tours []*entity.Tour) error {
	seen := make(map[string]struct{}, len(tours))
	for _, tour := range tours {
		if tour.Name == "" {
			return domainerrors.ErrValidationFailed.WithDetails("a tour must have a name")
		}
		if tour.ID == uuid.Nil {
			tour.ID = uuid.New()
		}
		if tour.Slug == "" {
			tour.Slug = slug.Make(tour.Name)
		}
		if _, dup := seen[tour.Slug]; dup {
			return domainerrors.ErrValidationFailed.WithDetails("duplicate tour slug " + tour.Slug)
		}
		seen[tour.Slug] = struct{}{}
	}

	if err := srv.repo.ReplaceAll(ctx, tours); err != nil {
		return errors.Wrap(err, "failed to seed tours")
	}

	deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Info("Tour catalogue seeded", slog.Int("count", len(tours)))

	return nil
}

func (srv *tourService) mapLookupError(err error) error {
	if errors.Is(err, repository.ErrTourNotFound) {
		return domainerrors.ErrTourNotFound
	}

	return errors.Wrap(err, "failed to load tour")
}
