package blob

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ukydev/fleet-fuel/internal/models"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectPath builds the storage path for an attachment, derived from the
// subject identifier and submission time:
// refueling/receipts/ABC1234_1724000000000.
func ObjectPath(kind models.AttachmentKind, subjectID string, at time.Time) string {
	subject := unsafeChars.ReplaceAllString(subjectID, "-")
	if subject == "" {
		subject = "unknown"
	}
	return fmt.Sprintf("refueling/%ss/%s_%d", kind, subject, at.UnixMilli())
}
