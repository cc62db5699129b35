// internal/app/workflow/reviewlog.go
package workflow

import (
	"net/url"
	"strings"

	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// ReviewInput carries the reviewer's note and optional supporting file.
type ReviewInput struct {
	Note          string `json:"note"`
	AttachmentURL string `json:"attachmentUrl"`
}

// appendReview is the only writer of review history. The previous entries
// are copied, never touched, so a Document handed to the engine keeps its
// history even if the caller holds on to it.
func appendReview(history []models.ReviewLogEntry, e models.ReviewLogEntry) []models.ReviewLogEntry {
	out := make([]models.ReviewLogEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, e)
}

// validAttachment accepts absolute http(s) URLs and site-relative paths.
func validAttachment(raw string) bool {
	if raw == "" {
		return true
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (e *Engine) reviewEntry(a models.Action, stage models.Status, actor models.Role, in ReviewInput) (models.ReviewLogEntry, error) {
	note := strings.TrimSpace(e.sanitize(in.Note))
	att := strings.TrimSpace(in.AttachmentURL)

	kind := models.ReviewApprove
	if a == models.ActionRequestRevision {
		kind = models.ReviewRequestRevision
		if note == "" {
			return models.ReviewLogEntry{}, validation(a, "note", "a note is required when requesting revision")
		}
	}
	if !validAttachment(att) {
		return models.ReviewLogEntry{}, validation(a, "attachmentUrl", "attachment must be an http(s) URL or a site path")
	}
	return models.ReviewLogEntry{
		StageStatus:   stage,
		Action:        kind,
		Note:          note,
		AttachmentURL: att,
		ActorRole:     actor,
		CreatedAt:     e.now(),
	}, nil
}
