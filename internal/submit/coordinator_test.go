package submit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAppender struct {
	mu       sync.Mutex
	events   []models.RefuelingEvent
	failWith error
	onAppend func()
}

func (f *fakeAppender) Append(ctx context.Context, event models.RefuelingEvent) (models.RefuelingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return models.RefuelingEvent{}, f.failWith
	}
	event.ID = primitive.NewObjectID()
	event.RecordedAt = time.Now().UTC()
	f.events = append(f.events, event)
	if f.onAppend != nil {
		f.onAppend()
	}
	return event, nil
}

func (f *fakeAppender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeAdjuster struct {
	mu       sync.Mutex
	levels   map[string]decimal.Decimal
	calls    int
	failWith error
}

func newFakeAdjuster(initial string) *fakeAdjuster {
	return &fakeAdjuster{
		levels: map[string]decimal.Decimal{
			models.DefaultTankID: decimal.RequireFromString(initial),
		},
	}
}

func (f *fakeAdjuster) Adjust(ctx context.Context, tankID string, delta decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if f.failWith != nil {
		return decimal.Zero, f.failWith
	}
	level := f.levels[tankID].Add(delta)
	f.levels[tankID] = level
	return level, nil
}

func (f *fakeAdjuster) level(tankID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[tankID]
}

type fakeBlobStore struct {
	mu       sync.Mutex
	uploaded []string
	failWith error
}

func (f *fakeBlobStore) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.uploaded = append(f.uploaded, objectName)
	return "https://storage.googleapis.com/test-bucket/" + objectName, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.RefuelingEvent
}

func (f *fakeNotifier) EventAccepted(event models.RefuelingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func fleetInput(liters string) Input {
	return Input{
		Category:    models.CategoryFleet,
		SubjectID:   "ABC-1234",
		OccurredAt:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Liters:      liters,
		SubmittedBy: "carlos",
		Fleet: &models.FleetDetails{
			Plate:    "ABC-1234",
			FuelType: "diesel",
			Odometer: 123456,
			Driver:   "Carlos",
		},
	}
}

func TestCoordinator_Submit_EndToEnd(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("1000.0")
	blobs := &fakeBlobStore{}
	notifier := &fakeNotifier{}
	coordinator := NewCoordinator(appender, adjuster, blobs, notifier, "")

	input := fleetInput("45.5")
	input.Attachments = []AttachmentInput{
		{Kind: models.AttachmentReceipt, ContentType: "image/jpeg", Data: []byte("receipt-bytes")},
		{Kind: models.AttachmentPanel, ContentType: "image/jpeg", Data: []byte("panel-bytes")},
	}

	result, err := coordinator.Submit(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusRecorded, result.Status)
	assert.NotEmpty(t, result.SubmissionID)
	assert.NotEmpty(t, result.EventID)
	assert.True(t, result.NewLevel.Equal(decimal.RequireFromString("954.5")), "got %s", result.NewLevel)
	assert.Empty(t, result.UploadWarnings)

	require.Equal(t, 1, appender.count())
	event := appender.events[0]
	liters, err := models.FromDecimal128(event.Liters)
	require.NoError(t, err)
	assert.True(t, liters.Equal(decimal.RequireFromString("45.5")))
	require.Len(t, event.Attachments, 2)
	require.NotNil(t, event.Attachments[0].URL)
	assert.Contains(t, *event.Attachments[0].URL, "refueling/receipts/ABC-1234_")
	require.NotNil(t, event.Attachments[1].URL)
	assert.Contains(t, *event.Attachments[1].URL, "refueling/panels/ABC-1234_")

	assert.Len(t, notifier.events, 1)
}

func TestCoordinator_Submit_Concurrent(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("100")
	coordinator := NewCoordinator(appender, adjuster, nil, nil, "")

	var wg sync.WaitGroup
	for _, liters := range []string{"10", "20"} {
		wg.Add(1)
		go func(liters string) {
			defer wg.Done()
			result, err := coordinator.Submit(context.Background(), fleetInput(liters))
			assert.NoError(t, err)
			assert.Equal(t, StatusRecorded, result.Status)
		}(liters)
	}
	wg.Wait()

	assert.True(t, adjuster.level(models.DefaultTankID).Equal(decimal.RequireFromString("70")),
		"final level %s", adjuster.level(models.DefaultTankID))
	assert.Equal(t, 2, appender.count())
}

func TestCoordinator_Submit_ValidationRejectsLocally(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"liters not a number", fleetInput("abc")},
		{"liters negative", fleetInput("-5")},
		{"liters zero", fleetInput("0")},
		{"liters empty", fleetInput("")},
		{"missing subject", func() Input {
			in := fleetInput("10")
			in.SubjectID = ""
			return in
		}()},
		{"unknown category", func() Input {
			in := fleetInput("10")
			in.Category = "tractor"
			return in
		}()},
		{"missing occurred_at", func() Input {
			in := fleetInput("10")
			in.OccurredAt = time.Time{}
			return in
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appender := &fakeAppender{}
			adjuster := newFakeAdjuster("100")
			blobs := &fakeBlobStore{}
			coordinator := NewCoordinator(appender, adjuster, blobs, nil, "")

			result, err := coordinator.Submit(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, StatusFailed, result.Status)

			// Rejected before any external system was touched
			assert.Equal(t, 0, appender.count())
			assert.Equal(t, 0, adjuster.calls)
			assert.Empty(t, blobs.uploaded)
		})
	}
}

func TestCoordinator_Submit_UploadFailureIsWarning(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("1000.0")
	blobs := &fakeBlobStore{failWith: errors.New("bucket unreachable")}
	coordinator := NewCoordinator(appender, adjuster, blobs, nil, "")

	input := fleetInput("45.5")
	input.Attachments = []AttachmentInput{
		{Kind: models.AttachmentReceipt, ContentType: "image/jpeg", Data: []byte("receipt-bytes")},
	}

	result, err := coordinator.Submit(context.Background(), input)
	require.NoError(t, err)

	// One failed photo must not block the stock adjustment
	assert.Equal(t, StatusRecorded, result.Status)
	assert.Equal(t, []string{"receipt upload failed"}, result.UploadWarnings)
	assert.True(t, result.NewLevel.Equal(decimal.RequireFromString("954.5")))

	require.Equal(t, 1, appender.count())
	require.Len(t, appender.events[0].Attachments, 1)
	assert.Nil(t, appender.events[0].Attachments[0].URL)
}

func TestCoordinator_Submit_OmittedAttachmentKeepsNilURL(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("1000.0")
	blobs := &fakeBlobStore{}
	coordinator := NewCoordinator(appender, adjuster, blobs, nil, "")

	input := fleetInput("45.5")
	input.Attachments = []AttachmentInput{
		{Kind: models.AttachmentReceipt}, // no photo taken
	}

	result, err := coordinator.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusRecorded, result.Status)
	assert.Empty(t, blobs.uploaded)
	require.Len(t, appender.events[0].Attachments, 1)
	assert.Nil(t, appender.events[0].Attachments[0].URL)
}

func TestCoordinator_Submit_AppendFailureIsFullFailure(t *testing.T) {
	appender := &fakeAppender{failWith: errors.New("no reachable servers")}
	adjuster := newFakeAdjuster("100")
	coordinator := NewCoordinator(appender, adjuster, nil, nil, "")

	result, err := coordinator.Submit(context.Background(), fleetInput("10"))
	assert.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Empty(t, result.EventID)

	// No fire-and-forget adjustment for an event that was never recorded
	assert.Equal(t, 0, adjuster.calls)
	assert.True(t, adjuster.level(models.DefaultTankID).Equal(decimal.RequireFromString("100")))
}

func TestCoordinator_Submit_RecordedButUnbalanced(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("100")
	adjuster.failWith = errors.New("ledger unavailable")
	coordinator := NewCoordinator(appender, adjuster, nil, nil, "")

	result, err := coordinator.Submit(context.Background(), fleetInput("10"))
	require.NoError(t, err)

	// Distinguishable from both full success and full failure
	assert.Equal(t, StatusRecordedUnbalanced, result.Status)
	assert.NotEmpty(t, result.EventID)
	assert.Error(t, result.LedgerErr)

	// The event remains durable for reconciliation
	require.Equal(t, 1, appender.count())
	assert.Equal(t, result.EventID, appender.events[0].ID.Hex())
}

func TestCoordinator_Submit_CancelledBeforeAppend(t *testing.T) {
	appender := &fakeAppender{}
	adjuster := newFakeAdjuster("100")
	coordinator := NewCoordinator(appender, adjuster, nil, nil, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := coordinator.Submit(ctx, fleetInput("10"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 0, appender.count())
	assert.Equal(t, 0, adjuster.calls)
}

func TestCoordinator_Submit_CancelAfterAppendStillAdjusts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender := &fakeAppender{}
	appender.onAppend = cancel // caller goes away right after the append commits
	adjuster := newFakeAdjuster("100")
	coordinator := NewCoordinator(appender, adjuster, nil, nil, "")

	result, err := coordinator.Submit(ctx, fleetInput("10"))
	require.NoError(t, err)

	// The event is durable, so the adjustment runs to completion
	assert.Equal(t, StatusRecorded, result.Status)
	assert.True(t, result.NewLevel.Equal(decimal.RequireFromString("90")), "got %s", result.NewLevel)
}
