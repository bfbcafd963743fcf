package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category identifies which kind of subject was refueled.
type Category string

const (
	CategoryFleet        Category = "fleet"
	CategoryConstruction Category = "construction"
	CategoryConvoy       Category = "convoy"
)

// IsValidCategory checks if a category is one of the three known values.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryFleet, CategoryConstruction, CategoryConvoy:
		return true
	default:
		return false
	}
}

// CollectionName returns the event log collection a category appends to.
func (c Category) CollectionName() string {
	switch c {
	case CategoryConstruction:
		return "construction_refuelings"
	case CategoryConvoy:
		return "convoy_refuelings"
	default:
		return "refuelings"
	}
}

// AttachmentKind identifies the kind of photo attached to an event.
type AttachmentKind string

const (
	AttachmentReceipt AttachmentKind = "receipt"
	AttachmentPanel   AttachmentKind = "panel"
)

// Attachment references an externally stored binary object. URL is nil
// when the upload failed or was omitted; the event is still valid.
type Attachment struct {
	Kind AttachmentKind `bson:"kind" json:"kind"`
	URL  *string        `bson:"url" json:"url"`
}

// RefuelingEvent is one fuel-dispensing record. Events are immutable once
// inserted; they are never updated or deleted by this service.
type RefuelingEvent struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Category    Category             `bson:"category" json:"category"`
	SubjectID   string               `bson:"subject_id" json:"subject_id"`
	OccurredAt  time.Time            `bson:"occurred_at" json:"occurred_at"`
	RecordedAt  time.Time            `bson:"recorded_at" json:"recorded_at"`
	Liters      primitive.Decimal128 `bson:"liters" json:"liters"`
	SubmittedBy string               `bson:"submitted_by,omitempty" json:"submitted_by,omitempty"`
	Attachments []Attachment         `bson:"attachments,omitempty" json:"attachments,omitempty"`

	Fleet        *FleetDetails        `bson:"fleet,omitempty" json:"fleet,omitempty"`
	Construction *ConstructionDetails `bson:"construction,omitempty" json:"construction,omitempty"`
	Convoy       *ConvoyDetails       `bson:"convoy,omitempty" json:"convoy,omitempty"`
}

// FleetDetails carries the fleet-vehicle form fields.
type FleetDetails struct {
	Plate    string  `bson:"plate" json:"plate"`
	FuelType string  `bson:"fuel_type" json:"fuel_type"` // "diesel" or "arla"
	Odometer float64 `bson:"odometer,omitempty" json:"odometer,omitempty"`
	Driver   string  `bson:"driver,omitempty" json:"driver,omitempty"`
}

// ConstructionDetails carries the construction-machine form fields.
type ConstructionDetails struct {
	MachineID string  `bson:"machine_id" json:"machine_id"`
	Hourmeter float64 `bson:"hourmeter,omitempty" json:"hourmeter,omitempty"`
	Operator  string  `bson:"operator,omitempty" json:"operator,omitempty"`
	Site      string  `bson:"site,omitempty" json:"site,omitempty"`
}

// ConvoyDetails carries the tanker-convoy form fields.
type ConvoyDetails struct {
	ConvoyID     string  `bson:"convoy_id" json:"convoy_id"`
	TankCapacity float64 `bson:"tank_capacity,omitempty" json:"tank_capacity,omitempty"`
	CurrentLevel float64 `bson:"current_level,omitempty" json:"current_level,omitempty"`
}
