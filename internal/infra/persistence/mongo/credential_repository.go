package mongo

import (
	"context"
	"time"

	"tours/internal/domain/entity"
	domainerrors "tours/internal/domain/errors"
	"tours/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type credentialRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewCredentialRepository stores credentials in the users collection.
func NewCredentialRepository(db *mongo.Database) repository.CredentialRepository {
	return &credentialRepository{coll: db.Collection(usersCollection), now: time.Now}
}

func (r *credentialRepository) Create(ctx context.Context, credential *entity.Credential) error {
	if credential.ID == uuid.Nil {
		credential.ID = uuid.New()
	}
	now := r.now()
	credential.Email = entity.NormalizeIdentifier(credential.Email)
	credential.Version = 1
	credential.CreatedAt = now
	credential.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toCredentialDocument(credential)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.WithStack(repository.ErrCredentialExists)
		}

		return domainerrors.NewDatabaseExecuteError(err, "insert credential")
	}

	return nil
}

func (r *credentialRepository) Load(ctx context.Context, email string) (*entity.Credential, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: entity.NormalizeIdentifier(email)}})
}

func (r *credentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *credentialRepository) FindByResetDigest(ctx context.Context, digest string) (*entity.Credential, error) {
	if digest == "" {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	return r.findOne(ctx, bson.D{{Key: "passwordResetToken", Value: digest}})
}

// Save replaces the document only while its version is unchanged.
func (r *credentialRepository) Save(ctx context.Context, credential *entity.Credential) error {
	next := credential.Clone()
	next.Email = entity.NormalizeIdentifier(next.Email)
	next.Version = credential.Version + 1
	next.UpdatedAt = r.now()

	filter := bson.D{
		{Key: "_id", Value: credential.ID.String()},
		{Key: "version", Value: credential.Version},
	}
	result, err := r.coll.ReplaceOne(ctx, filter, toCredentialDocument(next))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.WithStack(repository.ErrCredentialExists)
		}

		return domainerrors.NewDatabaseExecuteError(err, "replace credential")
	}

	if result.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, credential.ID); err != nil {
			return err
		}

		return errors.WithStack(repository.ErrConcurrentUpdate)
	}

	*credential = *next

	return nil
}

func (r *credentialRepository) ClearExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.D{{Key: "passwordResetExpires", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}}
	update := bson.D{
		{Key: "$unset", Value: bson.D{
			{Key: "passwordResetToken", Value: ""},
			{Key: "passwordResetExpires", Value: ""},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.now().UTC()}}},
	}

	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "clear expired resets")
	}

	return result.ModifiedCount, nil
}

func (r *credentialRepository) findOne(ctx context.Context, filter bson.D) (*entity.Credential, error) {
	var doc credentialDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.WithStack(repository.ErrCredentialNotFound)
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "find credential")
	}

	credential, err := toCredentialEntity(&doc)
	if err != nil {
		return nil, errors.Wrapf(err, "decode credential %s", doc.ID)
	}

	return credential, nil
}
