package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the API relies on. Safe to call on every
// startup; Mongo treats identical index specs as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create accounts email index: %w", err)
	}

	// Supports the availability overlap query: filter by listing ref + status,
	// range on dates.
	bookingIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "property", Value: 1}, {Key: "status", Value: 1}, {Key: "check_in", Value: 1}}},
		{Keys: bson.D{{Key: "tour_package", Value: 1}, {Key: "status", Value: 1}, {Key: "check_in", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection("bookings").Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	_, err = db.Collection("listings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "host", Value: 1}, {Key: "deleted", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create listings host index: %w", err)
	}

	return nil
}
