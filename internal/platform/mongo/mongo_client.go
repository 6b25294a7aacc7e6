// Package mongo connects to the MongoDB deployment holding accounts and sessions.
package mongo

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetTimeout(connectTimeout))
	if err != nil {
		return nil, oops.Code("MONGO_CONNECT_FAILED").Wrap(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, oops.Code("MONGO_PING_FAILED").Wrap(err)
	}

	slog.Info("MongoDB connection successful")
	return client, nil
}

// Disconnect closes client, waiting at most until ctx is done.
func Disconnect(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		slog.Warn("MongoDB disconnect failed", "error", err)
	}
}
