package postgres

import (
	"context"

	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"
	"tours/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type tourRepository struct {
	db *gorm.DB
}

// NewTourRepository is the constructor for tourRepository.
func NewTourRepository(db *gorm.DB) repository.TourRepository {
	return &tourRepository{db: db}
}

func (repo *tourRepository) List(ctx context.Context) ([]*entity.Tour, error) {
	var tourMs []*model.TourModel
	if err := repo.db.WithContext(ctx).Order("created_at ASC").Find(&tourMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "list tours")
	}

	tours := make([]*entity.Tour, 0, len(tourMs))
	for _, tourM := range tourMs {
		tours = append(tours, toTourDomain(tourM))
	}

	return tours, nil
}

func (repo *tourRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tour, error) {
	return repo.first(ctx, "id = ?", id)
}

func (repo *tourRepository) FindBySlug(ctx context.Context, slug string) (*entity.Tour, error) {
	return repo.first(ctx, "slug = ?", slug)
}

// ReplaceAll deletes every tour and inserts tours in one transaction.
func (repo *tourRepository) ReplaceAll(ctx context.Context, tours []*entity.Tour) error {
	return withTransaction(ctx, repo.db, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.TourModel{}).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "delete tours")
		}
		if len(tours) == 0 {
			return nil
		}

		tourMs := make([]*model.TourModel, 0, len(tours))
		for _, tour := range tours {
			if tour.ID == uuid.Nil {
				tour.ID = uuid.New()
			}
			tourMs = append(tourMs, toTourModel(tour))
		}

		if err := tx.Create(&tourMs).Error; err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "insert tours")
		}

		return nil
	})
}

func (repo *tourRepository) first(ctx context.Context, query string, args ...any) (*entity.Tour, error) {
	var tourM model.TourModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&tourM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WithStack(repository.ErrTourNotFound)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "find tour")
	}

	return toTourDomain(&tourM), nil
}
