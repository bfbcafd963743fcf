package db

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBalanceCollection implements BalanceCollection for the stock
// collection.
type MongoBalanceCollection struct {
	Collection *mongo.Collection
}

// IncrementLevel applies a signed delta to a tank's level in a single
// server-side findAndModify, so concurrent adjustments on the same tank
// can never lose an update. A missing tank document is created with the
// delta as its level (prior level 0). Returns the post-update document.
func (c *MongoBalanceCollection) IncrementLevel(ctx context.Context, tankID string, delta primitive.Decimal128) (*models.TankBalance, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	update := bson.M{
		"$inc":         bson.M{"level": delta},
		"$currentDate": bson.M{"updated_at": true},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var balance models.TankBalance
	err := c.Collection.FindOneAndUpdate(ctx, bson.M{"_id": tankID}, update, opts).Decode(&balance)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// FindBalance reads a tank's current balance document. A tank with no
// document yet returns nil, nil and reads as level zero.
func (c *MongoBalanceCollection) FindBalance(ctx context.Context, tankID string) (*models.TankBalance, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var balance models.TankBalance
	err := c.Collection.FindOne(ctx, bson.M{"_id": tankID}).Decode(&balance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}
