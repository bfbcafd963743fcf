package db

import (
	"context"

	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventCollection defines the interface for one append-only refueling
// event log. Events are insert-only; there is no update or delete.
type EventCollection interface {
	InsertEvent(ctx context.Context, event models.RefuelingEvent) (models.RefuelingEvent, error)
	FindRecentEvents(ctx context.Context, limit int64) ([]models.RefuelingEvent, error)
	FindEventByID(ctx context.Context, id string) (*models.RefuelingEvent, error)
}

// BalanceCollection defines the interface for tank stock documents. The
// level must only ever change through IncrementLevel; it is the atomic
// read-modify-write primitive the ledger relies on.
type BalanceCollection interface {
	IncrementLevel(ctx context.Context, tankID string, delta primitive.Decimal128) (*models.TankBalance, error)
	FindBalance(ctx context.Context, tankID string) (*models.TankBalance, error)
}

// TransactionCollection defines the interface for the stock history
// read-model.
type TransactionCollection interface {
	FindRecentTransactions(ctx context.Context, limit int64) ([]models.TransactionRecord, error)
}

// SettingsCollection defines the interface for tank configuration.
// Capacity is read-only from this service.
type SettingsCollection interface {
	FindTankSettings(ctx context.Context) (*models.TankSettings, error)
}
