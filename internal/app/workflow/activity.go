// internal/app/workflow/activity.go
package workflow

import (
	"strings"
	"time"

	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// DefaultExpiringWindow is how long before its end date an agreement counts
// as EXPIRING.
const DefaultExpiringWindow = 90 * 24 * time.Hour

// Validity reports whether a completed agreement is still in force. The
// second result is false for documents that have not reached SELESAI.
func (e *Engine) Validity(doc models.Document) (models.Validity, bool) {
	if doc.Status != models.StatusSelesai {
		return "", false
	}
	return models.ValidityAt(doc.EndDate, e.now(), e.expiring), true
}

// ActivityInput is the client-supplied part of an activity.
type ActivityInput struct {
	Date  string                `json:"date"`
	Title string                `json:"title"`
	Notes string                `json:"notes"`
	Link  string                `json:"link"`
	Files []models.ActivityFile `json:"files"`
}

const maxActivityFiles = 20

// CanReadActivities reports whether doc has an activity log. Only completed
// agreements do.
func (e *Engine) CanReadActivities(doc models.Document) error {
	if doc.Status != models.StatusSelesai {
		return invalidTransition(models.ActionLogActivity, doc.Status)
	}
	return nil
}

// CanWriteActivities checks that actor may add, change or remove entries in
// doc's activity log: the agreement is completed and not archived, and the
// actor is its proposer or LEMBAGA_KERJA_SAMA.
func (e *Engine) CanWriteActivities(doc models.Document, actor models.Role) error {
	if err := e.CanReadActivities(doc); err != nil {
		return err
	}
	if doc.ArchivedAt != nil {
		return &Error{
			Kind: KindInvalidTransition, Action: models.ActionLogActivity, Status: doc.Status,
			Msg: "archived agreements accept no activity changes",
		}
	}
	if actor != models.RoleLembagaKerjaSama && actor != doc.Owner() {
		return unauthorized(models.ActionLogActivity, doc.Status, actor)
	}
	return nil
}

// NewActivity builds a log entry for doc. CanWriteActivities must have
// passed.
func (e *Engine) NewActivity(doc models.Document, actorID string, actor models.Role, in ActivityInput) (models.Activity, error) {
	a, err := e.cleanActivity(models.Activity{}, in)
	if err != nil {
		return models.Activity{}, err
	}
	now := e.now()
	a.ID = e.newID()
	a.DocumentID = doc.ID
	a.CreatedBy = actorID
	a.CreatedByRole = actor
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

// ReviseActivity replaces the descriptive fields of cur with in. Identity and
// authorship are kept.
func (e *Engine) ReviseActivity(cur models.Activity, in ActivityInput) (models.Activity, error) {
	a, err := e.cleanActivity(cur, in)
	if err != nil {
		return models.Activity{}, err
	}
	a.UpdatedAt = e.now()
	return a, nil
}

func (e *Engine) cleanActivity(a models.Activity, in ActivityInput) (models.Activity, error) {
	const act = models.ActionLogActivity
	clean := func(s string) string { return strings.TrimSpace(e.sanitize(s)) }

	a.Date = strings.TrimSpace(in.Date)
	a.Title = clean(in.Title)
	a.Notes = clean(in.Notes)
	a.Link = strings.TrimSpace(in.Link)

	if a.Title == "" {
		return a, validation(act, "title", "title is required")
	}
	if _, err := time.Parse(dateLayout, a.Date); err != nil {
		return a, validation(act, "date", "date must be a YYYY-MM-DD date")
	}
	if !validAttachment(a.Link) {
		return a, validation(act, "link", "link must be an http(s) URL or a site path")
	}
	if len(in.Files) > maxActivityFiles {
		return a, validation(act, "files", "at most 20 files per activity")
	}

	a.Files = make([]models.ActivityFile, 0, len(in.Files))
	for _, f := range in.Files {
		f.Name = clean(f.Name)
		f.URL = strings.TrimSpace(f.URL)
		if f.URL == "" || !validAttachment(f.URL) {
			return a, validation(act, "files", "every file needs an http(s) URL or a site path")
		}
		if f.Name == "" {
			f.Name = f.URL[strings.LastIndex(f.URL, "/")+1:]
		}
		a.Files = append(a.Files, f)
	}
	return a, nil
}
