package repository

import (
	"context"

	"tours/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTourNotFound is returned when no tour matches the lookup.
var ErrTourNotFound = errors.New("tour not found")

// TourRepository is the read side of the tour catalogue plus bulk seeding.
type TourRepository interface {
	// List returns all tours ordered by creation time.
	List(ctx context.Context) ([]*entity.Tour, error)

	// FindByID retrieves a tour by id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tour, error)

	// FindBySlug retrieves a tour by its URL slug.
	FindBySlug(ctx context.Context, slug string) (*entity.Tour, error)

	// ReplaceAll drops the catalogue and stores tours in its place.
	ReplaceAll(ctx context.Context, tours []*entity.Tour) error
}
