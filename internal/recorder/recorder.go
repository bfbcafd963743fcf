package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

var (
	ErrValidation       = errors.New("invalid event")
	ErrStoreUnavailable = errors.New("event store unavailable")
	ErrUnknownCategory  = errors.New("unknown category")
)

// appendEvent is the shape the validator checks before an insert.
type appendEvent struct {
	Category  models.Category `validate:"required"`
	SubjectID string          `validate:"required"`
	Liters    string          `validate:"required"`
}

// Recorder durably appends refueling events to their category log.
// Append is NOT idempotent: retrying after an ambiguous failure may
// produce duplicate events, which is accepted — a duplicate event is
// recoverable by reconciliation, a missing one is not.
type Recorder struct {
	logs     map[models.Category]db.EventCollection
	validate *validator.Validate
}

// NewRecorder creates a recorder over one event collection per category.
func NewRecorder(logs map[models.Category]db.EventCollection) *Recorder {
	return &Recorder{
		logs:     logs,
		validate: validator.New(),
	}
}

// Append validates and durably appends an event, returning it with the
// store-assigned id and ingestion timestamp. Once Append returns
// successfully the event is immutable and retrievable.
func (r *Recorder) Append(ctx context.Context, event models.RefuelingEvent) (models.RefuelingEvent, error) {
	if !models.IsValidCategory(event.Category) {
		return models.RefuelingEvent{}, fmt.Errorf("%w: %q", ErrUnknownCategory, event.Category)
	}

	liters, err := models.FromDecimal128(event.Liters)
	if err != nil {
		return models.RefuelingEvent{}, fmt.Errorf("%w: liters unreadable: %v", ErrValidation, err)
	}
	if !liters.IsPositive() {
		return models.RefuelingEvent{}, fmt.Errorf("%w: liters must be positive, got %s", ErrValidation, liters)
	}

	check := appendEvent{
		Category:  event.Category,
		SubjectID: event.SubjectID,
		Liters:    liters.String(),
	}
	if err := r.validate.Struct(check); err != nil {
		return models.RefuelingEvent{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if event.OccurredAt.IsZero() {
		return models.RefuelingEvent{}, fmt.Errorf("%w: occurred_at is required", ErrValidation)
	}

	collection, ok := r.logs[event.Category]
	if !ok {
		return models.RefuelingEvent{}, fmt.Errorf("%w: no log for %q", ErrUnknownCategory, event.Category)
	}

	inserted, err := collection.InsertEvent(ctx, event)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.RefuelingEvent{}, err
		}
		return models.RefuelingEvent{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	log.WithFields(log.Fields{
		"event_id": inserted.ID.Hex(),
		"category": inserted.Category,
		"subject":  inserted.SubjectID,
		"liters":   liters.String(),
	}).Info("Refueling event recorded")

	return inserted, nil
}
