package db

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTransactionCollection implements TransactionCollection for the
// transactions history collection.
type MongoTransactionCollection struct {
	Collection *mongo.Collection
}

// FindRecentTransactions returns the most recent history entries ordered
// by date, newest first.
func (c *MongoTransactionCollection) FindRecentTransactions(ctx context.Context, limit int64) ([]models.TransactionRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(limit)
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.TransactionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
