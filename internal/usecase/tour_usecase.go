package usecase

import (
	"context"

	"tours/internal/domain/entity"

	"github.com/google/uuid"
)

// TourUsecase serves the read-only tour catalogue.
type TourUsecase interface {
	ListTours(ctx context.Context) ([]*entity.Tour, error)
	GetTour(ctx context.Context, id uuid.UUID) (*entity.Tour, error)
	GetTourBySlug(ctx context.Context, slug string) (*entity.Tour, error)
	// SeedTours replaces the catalogue with tours.
	SeedTours(ctx context.Context, tours []*entity.Tour) error
}
