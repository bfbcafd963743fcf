package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/auth"
	"github.com/ukydev/fleet-fuel/internal/config"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds the database with the documents the service expects to exist:
// the tank settings, the stock document and a default operator account.
// Idempotent; existing documents are left untouched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer client.Disconnect(context.Background())

	database := client.Database(cfg.MongoDB)

	capacity := mustDecimal(getEnv("SEED_TANK_CAPACITY", "15000"))
	level := mustDecimal(getEnv("SEED_STOCK_LEVEL", "0"))

	if err := upsertSettings(ctx, database.Collection("settings"), capacity); err != nil {
		log.WithError(err).Fatal("Failed to seed tank settings")
	}
	if err := upsertStock(ctx, database.Collection("stock"), cfg.TankID, level); err != nil {
		log.WithError(err).Fatal("Failed to seed stock document")
	}
	if err := seedOperator(ctx, database.Collection("users")); err != nil {
		log.WithError(err).Fatal("Failed to seed operator account")
	}

	log.Info("Database seeded")
}

func upsertSettings(ctx context.Context, coll *mongo.Collection, capacity primitive.Decimal128) error {
	update := bson.M{"$setOnInsert": bson.M{"capacity": capacity}}
	opts := options.Update().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, bson.M{"_id": "tank"}, update, opts)
	return err
}

func upsertStock(ctx context.Context, coll *mongo.Collection, tankID string, level primitive.Decimal128) error {
	update := bson.M{"$setOnInsert": bson.M{"level": level, "updated_at": time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, bson.M{"_id": tankID}, update, opts)
	return err
}

func seedOperator(ctx context.Context, coll *mongo.Collection) error {
	users := &db.MongoUserCollection{Collection: coll}
	username := getEnv("SEED_USERNAME", "operator")

	if _, err := users.FindUserByUsername(ctx, username); err == nil {
		log.WithField("username", username).Info("Operator account already exists")
		return nil
	}

	authService, err := auth.NewService()
	if err != nil {
		return err
	}
	passwordHash, err := authService.HashPassword(getEnv("SEED_PASSWORD", "changeme"))
	if err != nil {
		return err
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        getEnv("SEED_EMAIL", "operator@example.com"),
		PasswordHash: passwordHash,
		Role:         models.RoleOperator,
	}
	if err := users.InsertUser(ctx, user); err != nil {
		return err
	}
	log.WithField("username", username).Info("Created operator account")
	return nil
}

func mustDecimal(s string) primitive.Decimal128 {
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		log.WithError(err).Fatalf("Invalid decimal %q", s)
	}
	return d
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
