// internal/app/workflow/engine.go
package workflow

import (
	"strings"
	"time"

	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/google/uuid"
)

// Engine applies workflow actions to documents. It performs no I/O: callers
// load the document, hand it to the engine and persist what comes back.
// Input documents are never modified.
type Engine struct {
	now       func() time.Time
	deletes   DeletePolicy
	relations RelationPolicy
	sanitize  func(string) string
	newID     func() string
	expiring  time.Duration
}

type Option func(*Engine)

// WithClock replaces time.Now. Timestamps are always stored in UTC.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = func() time.Time { return now().UTC() } }
}

func WithDeletePolicy(p DeletePolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.deletes = p
		}
	}
}

func WithRelationPolicy(p RelationPolicy) Option {
	return func(e *Engine) { e.relations = p }
}

// WithSanitizer installs the filter applied to reviewer notes and free-text
// details before they are stored.
func WithSanitizer(fn func(string) string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.sanitize = fn
		}
	}
}

// WithExpiringWindow sets how close to its end date a completed agreement
// is reported as EXPIRING. Negative values are ignored.
func WithExpiringWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.expiring = d
		}
	}
}

// WithIDGenerator replaces uuid.NewString for new documents and activities.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:       func() time.Time { return time.Now().UTC() },
		deletes:   DefaultDeletePolicy,
		relations: DefaultRelationPolicy,
		sanitize:  func(s string) string { return s },
		newID:     uuid.NewString,
		expiring:  DefaultExpiringWindow,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Relations returns the relation policy in force.
func (e *Engine) Relations() RelationPolicy { return e.relations }

// CreateInput describes a new DRAFT document. An empty ID is generated.
type CreateInput struct {
	ID         string
	Level      models.Level
	Details    models.Details
	RelatedIDs []string
}

// Patch is an edit. Nil fields are left unchanged; Details replaces all
// descriptive fields at once.
type Patch struct {
	Details    *models.Details
	RelatedIDs *[]string
}

// Create builds a DRAFT owned by actor. known maps every existing document id
// the request may reference to its level.
func (e *Engine) Create(in CreateInput, actor models.Role, known map[string]models.Level) (models.Document, []RelationWarning, error) {
	if !actor.CanPropose() {
		return models.Document{}, nil, &Error{
			Kind: KindUnauthorized, Action: models.ActionCreate, Status: models.StatusDraft, Role: actor,
			Msg: "role " + string(actor) + " may not create documents",
		}
	}
	if !in.Level.Valid() {
		return models.Document{}, nil, validation(models.ActionCreate, "level", "level must be one of MOU, MOA, IA")
	}

	details, err := e.cleanDetails(models.ActionCreate, in.Details)
	if err != nil {
		return models.Document{}, nil, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = e.newID()
	}
	related, warns, err := e.relations.Resolve(models.ActionCreate, id, in.Level, in.RelatedIDs, known)
	if err != nil {
		return models.Document{}, nil, err
	}

	now := e.now()
	return models.Document{
		ID:            id,
		Level:         in.Level,
		Status:        models.StatusDraft,
		CreatedByRole: actor,
		RelatedIDs:    related,
		ReviewHistory: []models.ReviewLogEntry{},
		Details:       details,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, warns, nil
}

// Edit applies p to a document in DRAFT or REVISI.
func (e *Engine) Edit(doc models.Document, actor models.Role, p Patch, known map[string]models.Level) (models.Document, []RelationWarning, error) {
	const a = models.ActionEdit
	if err := e.check(doc, actor, a); err != nil {
		return doc, nil, err
	}

	out := doc.Clone()
	if p.Details != nil {
		d, err := e.cleanDetails(a, *p.Details)
		if err != nil {
			return doc, nil, err
		}
		out.Details = d
	}

	var warns []RelationWarning
	if p.RelatedIDs != nil {
		related, w, err := e.relations.Resolve(a, doc.ID, doc.Level, *p.RelatedIDs, known)
		if err != nil {
			return doc, nil, err
		}
		out.RelatedIDs = related
		warns = w
	}

	out.UpdatedAt = e.now()
	return out, warns, nil
}

// Submit moves a DRAFT into review and fixes the proposer role.
func (e *Engine) Submit(doc models.Document, actor models.Role) (models.Document, error) {
	const a = models.ActionSubmit
	if err := e.check(doc, actor, a); err != nil {
		return doc, err
	}
	if _, err := e.cleanDetails(a, doc.Details); err != nil {
		return doc, err
	}
	if doc.Owner() == models.RoleProdi && !doc.DeanApproval {
		return doc, validation(a, "deanApproval", "study program proposals need the dean's approval before submission")
	}

	now := e.now()
	out := doc.Clone()
	out.Status = models.StatusPengajuanDokumen
	if out.SubmittedAt == nil {
		out.SubmittedAt = &now
	}
	if out.PengajuRole == nil {
		r := actor
		out.PengajuRole = &r
	}
	out.UpdatedAt = now
	return out, nil
}

// Approve records an APPROVE entry and advances the document one stage.
// Approval at the last stage completes it.
func (e *Engine) Approve(doc models.Document, actor models.Role, in ReviewInput) (models.Document, error) {
	const a = models.ActionApprove
	if err := e.check(doc, actor, a); err != nil {
		return doc, err
	}
	entry, err := e.reviewEntry(a, doc.Status, actor, in)
	if err != nil {
		return doc, err
	}
	next, _ := NextStage(doc.Status)

	out := doc.Clone()
	out.ReviewHistory = appendReview(doc.ReviewHistory, entry)
	out.Status = next
	if next == models.StatusSelesai && out.CompletedAt == nil {
		t := entry.CreatedAt
		out.CompletedAt = &t
	}
	out.UpdatedAt = entry.CreatedAt
	return out, nil
}

// RequestRevision sends the document back to its proposer and remembers the
// stage it has to return to.
func (e *Engine) RequestRevision(doc models.Document, actor models.Role, in ReviewInput) (models.Document, error) {
	const a = models.ActionRequestRevision
	if err := e.check(doc, actor, a); err != nil {
		return doc, err
	}
	entry, err := e.reviewEntry(a, doc.Status, actor, in)
	if err != nil {
		return doc, err
	}

	out := doc.Clone()
	out.ReviewHistory = appendReview(doc.ReviewHistory, entry)
	stage := doc.Status
	by := actor
	out.Status = models.StatusRevisi
	out.ReturnToStatus = &stage
	out.RevisionRequestedBy = &by
	out.UpdatedAt = entry.CreatedAt
	return out, nil
}

// Resubmit returns a revised document to the stage that requested revision.
func (e *Engine) Resubmit(doc models.Document, actor models.Role) (models.Document, error) {
	const a = models.ActionResubmit
	if err := e.check(doc, actor, a); err != nil {
		return doc, err
	}
	if _, err := e.cleanDetails(a, doc.Details); err != nil {
		return doc, err
	}

	now := e.now()
	out := doc.Clone()
	out.Status = *doc.ReturnToStatus
	out.ReturnToStatus = nil
	out.ResubmittedAt = &now
	out.UpdatedAt = now
	return out, nil
}

// Archive retires a completed document. It is the only action available on
// SELESAI and may happen once.
func (e *Engine) Archive(doc models.Document, actor models.Role) (models.Document, error) {
	const a = models.ActionArchive
	if err := e.check(doc, actor, a); err != nil {
		return doc, err
	}
	now := e.now()
	out := doc.Clone()
	out.ArchivedAt = &now
	out.UpdatedAt = now
	return out, nil
}

// CheckDelete reports whether actor may delete doc. Removing the record and
// cleaning up references to it is the store's job.
func (e *Engine) CheckDelete(doc models.Document, actor models.Role) error {
	return e.check(doc, actor, models.ActionDelete)
}

// check applies the legality test, then the authorization test.
func (e *Engine) check(doc models.Document, actor models.Role, a models.Action) error {
	if !legalFrom(a, doc.Status) {
		return invalidTransition(a, doc.Status)
	}
	switch {
	case a == models.ActionResubmit && doc.ReturnToStatus == nil:
		return &Error{Kind: KindInvalidTransition, Action: a, Status: doc.Status,
			Msg: "resubmit needs a pending revision request"}
	case a == models.ActionArchive && doc.ArchivedAt != nil:
		return &Error{Kind: KindInvalidTransition, Action: a, Status: doc.Status,
			Msg: "document is already archived"}
	}
	if !actor.Valid() || !authorized(a, doc.Status, actor, actor == doc.Owner(), doc.Level, e.deletes) {
		return unauthorized(a, doc.Status, actor)
	}
	return nil
}
