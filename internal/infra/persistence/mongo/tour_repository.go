package mongo

import (
	"context"

	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type tourRepository struct {
	coll *mongo.Collection
}

// NewTourRepository reads and seeds the tours collection.
func NewTourRepository(db *mongo.Database) repository.TourRepository {
	return &tourRepository{coll: db.Collection(toursCollection)}
}

func (r *tourRepository) List(ctx context.Context) ([]*entity.Tour, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "list tours")
	}

	var docs []tourDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "decode tours")
	}

	tours := make([]*entity.Tour, 0, len(docs))
	for i := range docs {
		tour, err := toTourEntity(&docs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "decode tour %s", docs[i].ID)
		}
		tours = append(tours, tour)
	}

	return tours, nil
}

func (r *tourRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tour, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *tourRepository) FindBySlug(ctx context.Context, slug string) (*entity.Tour, error) {
	return r.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

// ReplaceAll empties the collection and inserts tours. It is not atomic;
// it only runs from the seed command.
func (r *tourRepository) ReplaceAll(ctx context.Context, tours []*entity.Tour) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "delete tours")
	}
	if len(tours) == 0 {
		return nil
	}

	docs := make([]any, 0, len(tours))
	for _, tour := range tours {
		if tour.ID == uuid.Nil {
			tour.ID = uuid.New()
		}
		docs = append(docs, toTourDocument(tour))
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "insert tours")
	}

	return nil
}

func (r *tourRepository) findOne(ctx context.Context, filter bson.D) (*entity.Tour, error) {
	var doc tourDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrTourNotFound)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "find tour")
	}

	tour, err := toTourEntity(&doc)
	if err != nil {
		return nil, errors.Wrapf(err, "decode tour %s", doc.ID)
	}

	return tour, nil
}
