package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventCollection implements EventCollection for one category log.
type MongoEventCollection struct {
	Collection *mongo.Collection
}

// InsertEvent appends a refueling event to the log. RecordedAt is stamped
// here, at ingestion, so display ordering does not depend on submitter
// clocks. The returned event carries the assigned id and timestamp.
func (c *MongoEventCollection) InsertEvent(ctx context.Context, event models.RefuelingEvent) (models.RefuelingEvent, error) {
	if c.Collection == nil {
		return models.RefuelingEvent{}, fmt.Errorf("mongo collection is nil")
	}
	event.ID = primitive.NewObjectID()
	event.RecordedAt = time.Now().UTC()
	if _, err := c.Collection.InsertOne(ctx, event); err != nil {
		return models.RefuelingEvent{}, err
	}
	return event, nil
}

// FindRecentEvents returns the most recent events ordered by ingestion
// time, newest first.
func (c *MongoEventCollection) FindRecentEvents(ctx context.Context, limit int64) ([]models.RefuelingEvent, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.RefuelingEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FindEventByID finds an event by its ID.
func (c *MongoEventCollection) FindEventByID(ctx context.Context, id string) (*models.RefuelingEvent, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID: %w", err)
	}
	var event models.RefuelingEvent
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("event not found")
		}
		return nil, err
	}
	return &event, nil
}
