// Package database opens the document store that holds User aggregates.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"social/internal/config"
	"social/internal/middleware"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersCollection holds one document per User aggregate.
const UsersCollection = "users"

const slowCommandThreshold = 200 * time.Millisecond

// DB wraps a MongoDB client or an embedded lungo engine behind the same
// collection interface.
type DB struct {
	client   lungo.IClient
	database lungo.IDatabase
	engine   *lungo.Engine
}

// Connect opens the database named in cfg. The memory:// URI runs the
// embedded engine instead of dialing a server.
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	if cfg.MongoURI == config.MemoryURI {
		return OpenMemory(ctx, cfg.DBName)
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMonitor(commandMonitor(middleware.Logger))

	client, err := lungo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := &DB{client: client, database: client.Database(cfg.DBName)}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	middleware.Logger.Info("Database connected successfully", slog.String("database", cfg.DBName))
	return db, nil
}

// OpenMemory starts an embedded in-memory engine. Used by tests and the
// memory:// URI.
func OpenMemory(ctx context.Context, name string) (*DB, error) {
	client, engine, err := lungo.Open(ctx, lungo.Options{
		Store: lungo.NewMemoryStore(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	db := &DB{client: client, database: client.Database(name), engine: engine}
	if err := db.EnsureIndexes(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	return db, nil
}

// Users returns the collection of User documents.
func (d *DB) Users() lungo.ICollection {
	return d.database.Collection(UsersCollection)
}

// EnsureIndexes creates the unique email index.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client and stops the embedded engine if any.
func (d *DB) Close(ctx context.Context) error {
	err := d.client.Disconnect(ctx)
	if d.engine != nil {
		d.engine.Close()
	}
	return err
}

// commandMonitor logs failed and slow commands through slog.
func commandMonitor(logger *slog.Logger) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			if e.Duration > slowCommandThreshold {
				logger.WarnContext(ctx, "mongodb slow command",
					slog.String("command", e.CommandName),
					slog.Duration("elapsed", e.Duration),
				)
			}
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			logger.ErrorContext(ctx, "mongodb command error",
				slog.String("command", e.CommandName),
				slog.Duration("elapsed", e.Duration),
				slog.String("error", e.Failure),
			)
		},
	}
}
