package submit

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-fuel/internal/models"
)

var ErrValidation = errors.New("invalid submission")

// AttachmentInput is one photo captured with the form. Data may be empty
// when the submitter skipped the photo.
type AttachmentInput struct {
	Kind        models.AttachmentKind
	ContentType string
	Data        []byte
}

// Input is the raw refueling form as submitted. Liters arrives as text,
// the way form fields do, and is coerced during validation.
type Input struct {
	Category    models.Category `validate:"required"`
	SubjectID   string          `validate:"required"`
	OccurredAt  time.Time       `validate:"required"`
	Liters      string          `validate:"required"`
	SubmittedBy string
	Attachments []AttachmentInput

	Fleet        *models.FleetDetails
	Construction *models.ConstructionDetails
	Convoy       *models.ConvoyDetails
}

// buildEvent validates and coerces the form input into an event value.
// It performs no external calls; a rejection here leaves every external
// system untouched.
func buildEvent(validate *validator.Validate, input Input) (models.RefuelingEvent, decimal.Decimal, error) {
	if err := validate.Struct(input); err != nil {
		return models.RefuelingEvent{}, decimal.Zero, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !models.IsValidCategory(input.Category) {
		return models.RefuelingEvent{}, decimal.Zero, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}

	liters, err := decimal.NewFromString(input.Liters)
	if err != nil {
		return models.RefuelingEvent{}, decimal.Zero, fmt.Errorf("%w: liters %q is not a number", ErrValidation, input.Liters)
	}
	if !liters.IsPositive() {
		return models.RefuelingEvent{}, decimal.Zero, fmt.Errorf("%w: liters must be positive, got %s", ErrValidation, liters)
	}

	d128, err := models.ToDecimal128(liters)
	if err != nil {
		return models.RefuelingEvent{}, decimal.Zero, fmt.Errorf("%w: liters out of range: %v", ErrValidation, err)
	}

	event := models.RefuelingEvent{
		Category:     input.Category,
		SubjectID:    input.SubjectID,
		OccurredAt:   input.OccurredAt,
		Liters:       d128,
		SubmittedBy:  input.SubmittedBy,
		Fleet:        input.Fleet,
		Construction: input.Construction,
		Convoy:       input.Convoy,
	}
	return event, liters, nil
}
