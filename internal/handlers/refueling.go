package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/middleware"
	"github.com/ukydev/fleet-fuel/internal/models"
	"github.com/ukydev/fleet-fuel/internal/submit"
)

// Submitter runs one refueling submission end-to-end.
type Submitter interface {
	Submit(ctx context.Context, input submit.Input) (submit.Result, error)
}

// RefuelingHandler handles refueling submission requests
type RefuelingHandler struct {
	submitter Submitter
}

// NewRefuelingHandler creates a new refueling handler
func NewRefuelingHandler(submitter Submitter) *RefuelingHandler {
	return &RefuelingHandler{submitter: submitter}
}

// refuelingRequest is the JSON body of a submission. Images arrive
// base64-encoded, the way the capture form sends them.
type refuelingRequest struct {
	SubjectID  string    `json:"subject_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Liters     string    `json:"liters"`

	ReceiptImage       string `json:"receipt_image,omitempty"`
	ReceiptContentType string `json:"receipt_content_type,omitempty"`
	PanelImage         string `json:"panel_image,omitempty"`
	PanelContentType   string `json:"panel_content_type,omitempty"`

	Fleet        *models.FleetDetails        `json:"fleet,omitempty"`
	Construction *models.ConstructionDetails `json:"construction,omitempty"`
	Convoy       *models.ConvoyDetails       `json:"convoy,omitempty"`
}

// refuelingResponse reports the submission outcome. Warning is set for
// the recorded-but-unbalanced outcome so clients can flag the stock
// level as pending reconciliation.
type refuelingResponse struct {
	SubmissionID   string   `json:"submission_id"`
	Status         string   `json:"status"`
	EventID        string   `json:"event_id,omitempty"`
	NewLevel       string   `json:"new_level,omitempty"`
	Warning        string   `json:"warning,omitempty"`
	UploadWarnings []string `json:"upload_warnings,omitempty"`
}

// SubmitFleet handles POST /api/refuelings/fleet
func (h *RefuelingHandler) SubmitFleet(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, models.CategoryFleet)
}

// SubmitConstruction handles POST /api/refuelings/construction
func (h *RefuelingHandler) SubmitConstruction(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, models.CategoryConstruction)
}

// SubmitConvoy handles POST /api/refuelings/convoy
func (h *RefuelingHandler) SubmitConvoy(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, models.CategoryConvoy)
}

func (h *RefuelingHandler) handleSubmit(w http.ResponseWriter, r *http.Request, category models.Category) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req refuelingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	input := submit.Input{
		Category:     category,
		SubjectID:    req.SubjectID,
		OccurredAt:   req.OccurredAt,
		Liters:       req.Liters,
		Fleet:        req.Fleet,
		Construction: req.Construction,
		Convoy:       req.Convoy,
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now().UTC()
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		input.SubmittedBy = claims.Username
	}

	receipt, err := decodeAttachment(models.AttachmentReceipt, req.ReceiptImage, req.ReceiptContentType)
	if err != nil {
		http.Error(w, "Invalid receipt image encoding", http.StatusBadRequest)
		return
	}
	if receipt != nil {
		input.Attachments = append(input.Attachments, *receipt)
	}
	panel, err := decodeAttachment(models.AttachmentPanel, req.PanelImage, req.PanelContentType)
	if err != nil {
		http.Error(w, "Invalid panel image encoding", http.StatusBadRequest)
		return
	}
	if panel != nil {
		input.Attachments = append(input.Attachments, *panel)
	}

	result, err := h.submitter.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, submit.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.WithError(err).WithField("category", category).Error("Refueling submission failed")
		http.Error(w, "Failed to record refueling", http.StatusServiceUnavailable)
		return
	}

	response := refuelingResponse{
		SubmissionID:   result.SubmissionID,
		Status:         string(result.Status),
		EventID:        result.EventID,
		UploadWarnings: result.UploadWarnings,
	}

	status := http.StatusOK
	switch result.Status {
	case submit.StatusRecorded:
		response.NewLevel = result.NewLevel.String()
	case submit.StatusRecordedUnbalanced:
		// The event is durable but the stock level was not adjusted.
		status = http.StatusAccepted
		response.Warning = "event recorded but stock level not adjusted: " + result.LedgerErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// decodeAttachment turns a base64 form field into an attachment input.
// An empty field means the photo was skipped and yields nil.
func decodeAttachment(kind models.AttachmentKind, encoded, contentType string) (*submit.AttachmentInput, error) {
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &submit.AttachmentInput{Kind: kind, ContentType: contentType, Data: data}, nil
}
