package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidDelta      = errors.New("invalid delta")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// Decimal128 bounds: 34 significant digits, exponent in [-6176, 6111].
const (
	maxDecimalExponent = 6111
	minDecimalExponent = -6176
	maxDecimalDigits   = 34
)

// Ledger owns the tank stock level. Every change to a level goes through
// Adjust; no other code path may read-then-write a balance document.
type Ledger struct {
	balances   db.BalanceCollection
	maxRetries uint64
	backoff    time.Duration
}

// NewLedger creates a ledger over a balance collection.
func NewLedger(balances db.BalanceCollection) *Ledger {
	return &Ledger{
		balances:   balances,
		maxRetries: 3,
		backoff:    50 * time.Millisecond,
	}
}

// Adjust applies a signed delta to a tank's level as one atomic unit and
// returns the new level. A missing tank document behaves as level 0.
// The result is not clamped; negative levels are accepted. Transient
// store failures are retried a bounded number of times before
// ErrLedgerUnavailable is surfaced.
func (l *Ledger) Adjust(ctx context.Context, tankID string, delta decimal.Decimal) (decimal.Decimal, error) {
	d128, err := storableDelta(delta)
	if err != nil {
		return decimal.Zero, err
	}

	var updated *models.TankBalance
	backoff := retry.WithMaxRetries(l.maxRetries, retry.NewExponential(l.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		balance, err := l.balances.IncrementLevel(ctx, tankID, d128)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.WithError(err).WithField("tank_id", tankID).Warn("Tank level increment failed, retrying")
			return retry.RetryableError(err)
		}
		updated = balance
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	newLevel, err := models.FromDecimal128(updated.Level)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: stored level unreadable: %v", ErrLedgerUnavailable, err)
	}

	log.WithFields(log.Fields{
		"tank_id": tankID,
		"delta":   delta.String(),
		"level":   newLevel.String(),
	}).Info("Tank level adjusted")

	return newLevel, nil
}

// storableDelta converts a delta to its BSON form, rejecting values that
// cannot be represented in the stock document.
func storableDelta(delta decimal.Decimal) (primitive.Decimal128, error) {
	exp := int(delta.Exponent())
	if exp > maxDecimalExponent || exp < minDecimalExponent {
		return primitive.Decimal128{}, fmt.Errorf("%w: delta exceeds decimal128 range", ErrInvalidDelta)
	}
	digits := delta.Coefficient().Text(10)
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) > maxDecimalDigits {
		return primitive.Decimal128{}, fmt.Errorf("%w: delta exceeds decimal128 precision", ErrInvalidDelta)
	}
	d128, err := models.ToDecimal128(delta)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
	}
	return d128, nil
}
