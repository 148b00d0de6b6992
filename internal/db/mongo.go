package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	appName        = "careops-backend"
	connectTimeout = 10 * time.Second
)

// Setup prepares a freshly connected database, e.g. by creating indexes.
type Setup func(ctx context.Context, database *mongo.Database) error

// ClientOptions returns the driver options every CareOps process connects with.
// Retryable writes stay on; inserts rely on them together with TryInsert.
func ClientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetRetryWrites(true).
		SetServerSelectionTimeout(connectTimeout)
}

// ConnectDB connects to uri, waits for the primary and runs setup against
// dbName before handing the database out. setup may be nil. The client is
// disconnected again if any step fails.
func ConnectDB(ctx context.Context, uri, dbName string, setup Setup, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, ClientOptions(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	if setup != nil {
		if err := setup(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to prepare database %s: %w", dbName, err)
		}
	}

	log.Info().Str("database", dbName).Msg("connected to MongoDB")
	return client, database, nil
}

// DisconnectDB closes the client. A nil client, as with the memory backend, is a no-op.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}
