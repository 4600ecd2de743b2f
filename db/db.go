package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CharanLingolu/StudentMarkTracker-Backend/config"
)

// Global database handles
var (
	Client   *mongo.Client
	Database *mongo.Database
)

// InitDatabaseConnection initializes the MongoDB client and database handle
func InitDatabaseConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConfigInstance.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to create mongo client: %v", err)
	}

	// A failed ping is not fatal: the driver keeps retrying in the
	// background and requests start succeeding once the server is up.
	if err := client.Ping(ctx, nil); err != nil {
		log.Printf("Warning: could not reach MongoDB at startup: %v", err)
	}

	Client = client
	Database = client.Database(config.ConfigInstance.DBName)
	return nil
}

// CloseConnection closes the database connection
func CloseConnection() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// Users returns the users collection
func Users() *mongo.Collection {
	return Database.Collection("users")
}

// Marks returns the student mark records collection
func Marks() *mongo.Collection {
	return Database.Collection("studentmarks")
}

// Complaints returns the complaints collection
func Complaints() *mongo.Collection {
	return Database.Collection("complaints")
}

// EnsureIndexes creates the unique indexes the handlers rely on: the
// pre-insert existence checks are only a fast path, these are the
// authoritative guard against concurrent duplicates.
func EnsureIndexes(ctx context.Context) error {
	_, err := Users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "rollNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}

	_, err = Marks().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "rollNumber", Value: 1}, {Key: "subject", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create mark indexes: %v", err)
	}

	return nil
}

// IsDup reports whether err is a unique-index violation
func IsDup(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
