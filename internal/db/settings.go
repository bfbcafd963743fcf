package db

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// tankSettingsID is the settings document holding tank configuration.
const tankSettingsID = "tank"

// MongoSettingsCollection implements SettingsCollection for the settings
// collection.
type MongoSettingsCollection struct {
	Collection *mongo.Collection
}

// FindTankSettings reads the tank configuration document.
func (c *MongoSettingsCollection) FindTankSettings(ctx context.Context) (*models.TankSettings, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var settings models.TankSettings
	err := c.Collection.FindOne(ctx, bson.M{"_id": tankSettingsID}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("tank settings not found")
		}
		return nil, err
	}
	return &settings, nil
}
