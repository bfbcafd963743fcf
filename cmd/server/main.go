package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/auth"
	"github.com/ukydev/fleet-fuel/internal/blob"
	"github.com/ukydev/fleet-fuel/internal/config"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/handlers"
	"github.com/ukydev/fleet-fuel/internal/ledger"
	"github.com/ukydev/fleet-fuel/internal/middleware"
	"github.com/ukydev/fleet-fuel/internal/models"
	"github.com/ukydev/fleet-fuel/internal/notify"
	"github.com/ukydev/fleet-fuel/internal/recorder"
	"github.com/ukydev/fleet-fuel/internal/submit"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	database := client.Database(cfg.MongoDB)

	logs := map[models.Category]db.EventCollection{}
	for _, category := range []models.Category{models.CategoryFleet, models.CategoryConstruction, models.CategoryConvoy} {
		logs[category] = &db.MongoEventCollection{Collection: database.Collection(category.CollectionName())}
	}
	balances := &db.MongoBalanceCollection{Collection: database.Collection("stock")}
	settings := &db.MongoSettingsCollection{Collection: database.Collection("settings")}
	transactions := &db.MongoTransactionCollection{Collection: database.Collection("transactions")}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	var blobs blob.Store
	if cfg.GCSBucket != "" {
		store, err := blob.NewGCSStore(context.Background(), cfg.GCSBucket)
		if err != nil {
			log.WithError(err).Warn("Attachment uploads disabled: GCS store unavailable")
		} else {
			defer store.Close()
			blobs = store
		}
	}

	var notifier submit.Notifier
	if cfg.MQTTBroker != "" {
		mqttNotifier, err := notify.NewMQTTNotifier(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("Event fan-out disabled: MQTT broker unavailable")
		} else {
			defer mqttNotifier.Close()
			notifier = mqttNotifier
		}
	}

	coordinator := submit.NewCoordinator(
		recorder.NewRecorder(logs),
		ledger.NewLedger(balances),
		blobs,
		notifier,
		cfg.TankID,
	)

	authHandler := handlers.NewAuthHandler(authService, users)
	refuelingHandler := handlers.NewRefuelingHandler(coordinator)
	stockHandler := handlers.NewStockHandler(balances, settings, transactions, cfg.TankID)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	submitOnly := authMiddleware.RequirePermission("submit_refueling")
	viewStock := authMiddleware.RequirePermission("view_stock")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/profile", authHandler.GetProfile)
	mux.Handle("/api/refuelings/fleet", submitOnly(http.HandlerFunc(refuelingHandler.SubmitFleet)))
	mux.Handle("/api/refuelings/construction", submitOnly(http.HandlerFunc(refuelingHandler.SubmitConstruction)))
	mux.Handle("/api/refuelings/convoy", submitOnly(http.HandlerFunc(refuelingHandler.SubmitConvoy)))
	mux.Handle("/api/stock", viewStock(http.HandlerFunc(stockHandler.GetStock)))

	handler := rateLimiter.RateLimit(100, 60)(authMiddleware.Authenticate(mux))

	log.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
