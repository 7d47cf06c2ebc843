package database

import (
	"context"
	"fmt"
	"go-gin-event-booking/config"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// InitMongo 連線 MongoDB 並回傳設定的 database
func InitMongo(ctx context.Context, config *config.MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx,
		options.Client().ApplyURI(config.URI),
		options.Client().SetConnectTimeout(10*time.Second),
		options.Client().SetServerSelectionTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(config.Database), nil
}
