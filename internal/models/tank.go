package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTankID is the well-known singleton stock document id.
const DefaultTankID = "current"

// TankBalance holds the current stock level of one tank. The level is
// mutated only through the ledger's atomic increment; any other write
// path is a bug.
type TankBalance struct {
	TankID    string               `bson:"_id" json:"tank_id"`
	Level     primitive.Decimal128 `bson:"level" json:"level"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

// TankSettings exposes the configured tank capacity. Read-only for this
// service; owned by the settings document.
type TankSettings struct {
	ID       string               `bson:"_id" json:"id"`
	Capacity primitive.Decimal128 `bson:"capacity" json:"capacity"`
}

// ToDecimal128 converts a decimal quantity to its BSON representation.
func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

// FromDecimal128 converts a stored BSON decimal back to a decimal quantity.
func FromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}
