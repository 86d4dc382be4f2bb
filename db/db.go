package db

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	Client          *mongo.Client
	RoomsCollection *mongo.Collection
	UserCollection  *mongo.Collection
)

// Init connects to MongoDB and verifies the connection with a ping.
// It returns an error instead of exiting so the caller can fall back to
// the JSON file store when the database is unreachable.
func Init(ctx context.Context) error {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGODB_DB")
	if dbName == "" {
		dbName = "homestay"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	Client = client
	RoomsCollection = client.Database(dbName).Collection("rooms")
	UserCollection = client.Database(dbName).Collection("users")
	return nil
}

// Close disconnects the client; safe to call when Init never succeeded.
func Close(ctx context.Context) {
	if Client != nil {
		_ = Client.Disconnect(ctx)
	}
}
