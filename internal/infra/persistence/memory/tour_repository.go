package memory

import (
	"context"
	"slices"
	"sync"

	"tours/internal/domain/entity"
	"tours/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type tourRepository struct {
	mu    sync.RWMutex
	tours []*entity.Tour
}

// NewTourRepository creates an empty in-memory tour catalogue.
func NewTourRepository() repository.TourRepository {
	return &tourRepository{}
}

func (r *tourRepository) List(_ context.Context) ([]*entity.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Tour, 0, len(r.tours))
	for _, tour := range r.tours {
		out = append(out, tour.Clone())
	}

	return out, nil
}

func (r *tourRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Tour, error) {
	return r.find(func(t *entity.Tour) bool { return t.ID == id })
}

func (r *tourRepository) FindBySlug(_ context.Context, slug string) (*entity.Tour, error) {
	return r.find(func(t *entity.Tour) bool { return t.Slug == slug })
}

func (r *tourRepository) ReplaceAll(_ context.Context, tours []*entity.Tour) error {
	replaced := make([]*entity.Tour, 0, len(tours))
	for _, tour := range tours {
		cloned := tour.Clone()
		if cloned.ID == uuid.Nil {
			cloned.ID = uuid.New()
		}
		replaced = append(replaced, cloned)
	}
	slices.SortStableFunc(replaced, func(a, b *entity.Tour) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	r.mu.Lock()
	r.tours = replaced
	r.mu.Unlock()

	return nil
}

func (r *tourRepository) find(match func(*entity.Tour) bool) (*entity.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := slices.IndexFunc(r.tours, match)
	if idx < 0 {
		return nil, errors.WithStack(repository.ErrTourNotFound)
	}

	return r.tours[idx].Clone(), nil
}
