// Package mongo persists credentials and tours in MongoDB.
package mongo

import (
	"context"
	"log/slog"
	"time"

	"tours/config"
	"tours/internal/domain/lifecycle"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/fx"
)

const (
	usersCollection = "users"
	toursCollection = "tours"

	defaultConnectTimeout = 10 * time.Second
	defaultConnectRetries = 5
	connectBackoffBase    = 500 * time.Millisecond
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the MongoDB client. The connection is verified (with retries) and
// indexes are ensured when the application starts.
func New(params Params) (*mongo.Database, error) {
	cfg := params.Config.Mongo
	if cfg == nil || cfg.URI == "" {
		return nil, errors.New("mongo.uri must be provided")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}
	db := client.Database(cfg.Database)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout+connectTimeout)
			defer cancel()

			if err := pingWithRetry(ctx, params.Logger, client, cfg.ConnectRetries); err != nil {
				return err
			}

			return EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

func pingWithRetry(ctx context.Context, logger *slog.Logger, client *mongo.Client, retries uint64) error {
	if retries == 0 {
		retries = defaultConnectRetries
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(connectBackoffBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			logger.WarnContext(ctx, "MongoDB ping failed", slog.Int("attempt", attempt), slog.Any("error", err))

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to ping MongoDB")
	}

	return nil
}

// EnsureIndexes creates the unique identifier index and the reset lookup indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("password_reset_token"),
		},
		{
			Keys:    bson.D{{Key: "passwordResetExpires", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("password_reset_expires"),
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create users indexes")
	}

	_, err = db.Collection(toursCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create tours indexes")
	}

	return nil
}
