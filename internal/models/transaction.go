package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionType marks a history entry as replenishment or dispensing.
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// TransactionRecord is the denormalized history view shown on the stock
// screen. Read-only from this service's write path.
type TransactionRecord struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Type        TransactionType      `bson:"type" json:"type"`
	Date        time.Time            `bson:"date" json:"date"`
	Amount      primitive.Decimal128 `bson:"amount" json:"amount"`
	Description string               `bson:"description" json:"description"`
}
