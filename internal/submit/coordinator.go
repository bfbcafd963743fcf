package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/blob"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// Status classifies a submission outcome. A recorded-but-unbalanced
// submission has a durable event whose ledger adjustment did not apply;
// it must stay distinguishable from both success and failure so the
// caller can surface a reconciliation task.
type Status string

const (
	StatusRecorded           Status = "recorded"
	StatusRecordedUnbalanced Status = "recorded_unbalanced"
	StatusFailed             Status = "failed"
)

// Appender durably appends a refueling event.
type Appender interface {
	Append(ctx context.Context, event models.RefuelingEvent) (models.RefuelingEvent, error)
}

// Adjuster atomically applies a signed delta to a tank level.
type Adjuster interface {
	Adjust(ctx context.Context, tankID string, delta decimal.Decimal) (decimal.Decimal, error)
}

// Notifier publishes accepted events to downstream consumers.
// Best-effort; implementations must not block or fail the submission.
type Notifier interface {
	EventAccepted(event models.RefuelingEvent)
}

// Result reports one submission. EventID is set whenever the event was
// durably recorded, including the unbalanced outcome. NewLevel is only
// meaningful for StatusRecorded.
type Result struct {
	SubmissionID   string
	Status         Status
	EventID        string
	NewLevel       decimal.Decimal
	UploadWarnings []string
	LedgerErr      error
}

// Coordinator orchestrates one refueling submission end-to-end: validate,
// upload attachments, append the event, adjust the ledger. It is the only
// caller of the recorder and the ledger.
type Coordinator struct {
	appender Appender
	adjuster Adjuster
	blobs    blob.Store // nil disables uploads
	notifier Notifier   // nil disables fan-out
	tankID   string
	validate *validator.Validate
}

// NewCoordinator creates a coordinator. blobs and notifier may be nil.
func NewCoordinator(appender Appender, adjuster Adjuster, blobs blob.Store, notifier Notifier, tankID string) *Coordinator {
	if tankID == "" {
		tankID = models.DefaultTankID
	}
	return &Coordinator{
		appender: appender,
		adjuster: adjuster,
		blobs:    blobs,
		notifier: notifier,
		tankID:   tankID,
		validate: validator.New(),
	}
}

// Submit runs one submission. The returned error is non-nil only for
// full failure (nothing durable); the recorded-but-unbalanced outcome is
// reported through Result.Status with a nil error.
//
// The event is appended before the ledger is adjusted: if the adjustment
// fails there remains a durable record to reconcile from, whereas a
// missing event would be unrecoverable. Cancellation is honored up to
// the append; once the append has been invoked the adjustment runs
// regardless of the caller's context.
func (c *Coordinator) Submit(ctx context.Context, input Input) (Result, error) {
	result := Result{
		SubmissionID: uuid.NewString(),
		Status:       StatusFailed,
	}
	logger := log.WithFields(log.Fields{
		"submission_id": result.SubmissionID,
		"category":      input.Category,
		"subject":       input.SubjectID,
	})

	event, liters, err := buildEvent(c.validate, input)
	if err != nil {
		return result, err
	}

	submittedAt := time.Now()
	for _, att := range input.Attachments {
		event.Attachments = append(event.Attachments,
			c.uploadAttachment(ctx, logger, &result, att, input.SubjectID, submittedAt))
	}

	// Last point where abandoning the submission is safe: nothing is
	// durable yet, so no ledger adjustment may be issued either.
	if err := ctx.Err(); err != nil {
		logger.WithError(err).Warn("Submission abandoned before append")
		return result, err
	}

	inserted, err := c.appender.Append(ctx, event)
	if err != nil {
		logger.WithError(err).Error("Failed to record refueling event")
		return result, err
	}
	result.EventID = inserted.ID.Hex()

	if c.notifier != nil {
		c.notifier.EventAccepted(inserted)
	}

	// The event is durable now; the adjustment must not be lost to a
	// caller cancellation.
	newLevel, err := c.adjuster.Adjust(context.WithoutCancel(ctx), c.tankID, liters.Neg())
	if err != nil {
		logger.WithError(err).WithField("event_id", result.EventID).
			Error("Event recorded but tank level not adjusted")
		result.Status = StatusRecordedUnbalanced
		result.LedgerErr = err
		return result, nil
	}

	result.Status = StatusRecorded
	result.NewLevel = newLevel
	logger.WithFields(log.Fields{
		"event_id": result.EventID,
		"liters":   liters.String(),
		"level":    newLevel.String(),
	}).Info("Refueling submission completed")
	return result, nil
}

// uploadAttachment uploads one photo under a path derived from the
// subject and submission time. A failed upload is a warning, never a
// submission failure: one lost photo must not block the stock update.
func (c *Coordinator) uploadAttachment(ctx context.Context, logger *log.Entry, result *Result, att AttachmentInput, subjectID string, at time.Time) models.Attachment {
	out := models.Attachment{Kind: att.Kind}
	if c.blobs == nil || len(att.Data) == 0 {
		return out
	}

	path := blob.ObjectPath(att.Kind, subjectID, at)
	url, err := c.blobs.Upload(ctx, path, att.ContentType, att.Data)
	if err != nil {
		logger.WithError(err).WithField("object", path).Warn("Attachment upload failed")
		result.UploadWarnings = append(result.UploadWarnings,
			fmt.Sprintf("%s upload failed", att.Kind))
		return out
	}
	out.URL = &url
	return out
}
