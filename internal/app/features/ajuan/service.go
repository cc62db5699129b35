// internal/app/features/ajuan/service.go
package ajuan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/system/events"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the persistence the service needs. *documentstore.Store
// implements it against MongoDB.
type Repository interface {
	Insert(ctx context.Context, doc models.Document) (models.Document, error)
	Load(ctx context.Context, id string) (models.Document, error)
	Save(ctx context.Context, doc models.Document, pre documentstore.Precondition) (models.Document, error)
	Delete(ctx context.Context, id string, pre documentstore.Precondition) (int64, error)
	KnownLevels(ctx context.Context, ids []string) (map[string]models.Level, error)
	GetMany(ctx context.Context, ids []string) ([]models.Document, error)
	ReferencedBy(ctx context.Context, id string) ([]models.Document, error)
	List(ctx context.Context, f documentstore.ListFilter) ([]models.Document, error)
}

// Actor is the authenticated caller. Request is only used for audit
// metadata and may be nil.
type Actor struct {
	ID      string
	Role    models.Role
	Request *http.Request
}

// View is a document as the dashboard sees it. AllowedActions is derived for
// the requesting role on every response.
type View struct {
	models.Document
	AllowedActions []models.Action        `json:"allowedActions"`
	LatestReview   *models.ReviewLogEntry `json:"latestReview"`

	// Validity is set for completed agreements only.
	Validity models.Validity `json:"validity,omitempty"`
}

// Summary is a document reference in relation listings.
type Summary struct {
	ID     string        `json:"id"`
	Level  models.Level  `json:"level"`
	Status models.Status `json:"status"`
	Title  string        `json:"title"`
}

// Related lists the documents an ajuan points to and the ones pointing at it.
type Related struct {
	Outgoing []Summary `json:"outgoing"`
	Incoming []Summary `json:"incoming"`
}

// Service runs the load, transition, save cycle for every action and reports
// the outcome to the audit trail and the event publisher.
type Service struct {
	repo       Repository
	activities ActivityRepository
	engine     *workflow.Engine
	audit     *auditlog.Logger
	publisher events.Publisher
	log       *zap.Logger
}

func NewService(repo Repository, engine *workflow.Engine, auditLog *auditlog.Logger, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, engine: engine, audit: auditLog, publisher: pub, log: log}
}

// WithActivities attaches the activity log store. Without one the activity
// operations fail.
func (s *Service) WithActivities(r ActivityRepository) *Service {
	s.activities = r
	return s
}

// Engine exposes the workflow engine for pure queries.
func (s *Service) Engine() *workflow.Engine { return s.engine }

func (s *Service) view(doc models.Document, role models.Role) View {
	v := View{Document: doc, AllowedActions: s.engine.AllowedFor(doc, role)}
	if last := models.LatestReviews(doc.ReviewHistory, 1); len(last) == 1 {
		v.LatestReview = &last[0]
	}
	if validity, ok := s.engine.Validity(doc); ok {
		v.Validity = validity
	}
	return v
}

// storeErr turns persistence sentinels into workflow errors.
func storeErr(a models.Action, s models.Status, id string, err error) error {
	switch {
	case errors.Is(err, documentstore.ErrNotFound):
		return workflow.NotFound("document %s not found", id)
	case errors.Is(err, documentstore.ErrConflict), errors.Is(err, documentstore.ErrDuplicate),
		errors.Is(err, documentstore.ErrRelatedMissing):
		return workflow.Conflict(a, s)
	}
	return err
}

func (s *Service) load(ctx context.Context, a models.Action, id string) (models.Document, error) {
	doc, err := s.repo.Load(ctx, id)
	if err != nil {
		return models.Document{}, storeErr(a, "", id, err)
	}
	return doc, nil
}

// expectVersion enforces a client-supplied version. Zero means the client
// did not send one.
func expectVersion(doc models.Document, a models.Action, want int64) error {
	if want > 0 && want != doc.Version {
		return workflow.Conflict(a, doc.Status)
	}
	return nil
}

func (s *Service) known(ctx context.Context, ids []string) (map[string]models.Level, error) {
	if len(ids) == 0 {
		return map[string]models.Level{}, nil
	}
	return s.repo.KnownLevels(ctx, ids)
}

// List returns documents newest first.
func (s *Service) List(ctx context.Context, actor Actor, f documentstore.ListFilter) ([]View, error) {
	docs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.view(d, actor.Role))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (View, error) {
	doc, err := s.load(ctx, "", id)
	if err != nil {
		return View{}, err
	}
	return s.view(doc, actor.Role), nil
}

// Create stores a new DRAFT owned by the actor's role.
func (s *Service) Create(ctx context.Context, actor Actor, in workflow.CreateInput) (View, []workflow.RelationWarning, error) {
	known, err := s.known(ctx, in.RelatedIDs)
	if err != nil {
		return View{}, nil, err
	}
	doc, warns, err := s.engine.Create(in, actor.Role, known)
	if err != nil {
		s.rejected(ctx, actor, models.Document{ID: in.ID, Status: models.StatusDraft}, models.ActionCreate, err)
		return View{}, nil, err
	}
	saved, err := s.repo.Insert(ctx, doc)
	if err != nil {
		return View{}, nil, storeErr(models.ActionCreate, models.StatusDraft, doc.ID, err)
	}
	s.committed(ctx, actor, "", saved, audit.EventAjuanCreated, relationDetails(warns))
	return s.view(saved, actor.Role), warns, nil
}

// Edit applies p while the document is in DRAFT or REVISI.
func (s *Service) Edit(ctx context.Context, actor Actor, id string, version int64, p workflow.Patch) (View, []workflow.RelationWarning, error) {
	const a = models.ActionEdit
	doc, err := s.load(ctx, a, id)
	if err != nil {
		return View{}, nil, err
	}
	if err := expectVersion(doc, a, version); err != nil {
		return View{}, nil, err
	}
	var known map[string]models.Level
	if p.RelatedIDs != nil {
		if known, err = s.known(ctx, *p.RelatedIDs); err != nil {
			return View{}, nil, err
		}
	}

	next, warns, err := s.engine.Edit(doc, actor.Role, p, known)
	if err != nil {
		s.rejected(ctx, actor, doc, a, err)
		return View{}, nil, err
	}
	saved, err := s.repo.Save(ctx, next, documentstore.PreconditionOf(doc))
	if err != nil {
		return View{}, nil, storeErr(a, doc.Status, id, err)
	}
	s.committed(ctx, actor, doc.Status, saved, audit.EventAjuanEdited, relationDetails(warns))
	return s.view(saved, actor.Role), warns, nil
}

// apply runs one status-changing action.
func (s *Service) apply(ctx context.Context, actor Actor, id string, version int64, a models.Action, fn func(models.Document) (models.Document, error)) (View, error) {
	doc, err := s.load(ctx, a, id)
	if err != nil {
		return View{}, err
	}
	if err := expectVersion(doc, a, version); err != nil {
		return View{}, err
	}
	next, err := fn(doc)
	if err != nil {
		s.rejected(ctx, actor, doc, a, err)
		return View{}, err
	}
	saved, err := s.repo.Save(ctx, next, documentstore.PreconditionOf(doc))
	if err != nil {
		return View{}, storeErr(a, doc.Status, id, err)
	}
	s.committed(ctx, actor, doc.Status, saved, eventFor(a, saved), nil)
	return s.view(saved, actor.Role), nil
}

func (s *Service) Submit(ctx context.Context, actor Actor, id string, version int64) (View, error) {
	return s.apply(ctx, actor, id, version, models.ActionSubmit, func(d models.Document) (models.Document, error) {
		return s.engine.Submit(d, actor.Role)
	})
}

func (s *Service) Approve(ctx context.Context, actor Actor, id string, version int64, in workflow.ReviewInput) (View, error) {
	return s.apply(ctx, actor, id, version, models.ActionApprove, func(d models.Document) (models.Document, error) {
		return s.engine.Approve(d, actor.Role, in)
	})
}

func (s *Service) RequestRevision(ctx context.Context, actor Actor, id string, version int64, in workflow.ReviewInput) (View, error) {
	return s.apply(ctx, actor, id, version, models.ActionRequestRevision, func(d models.Document) (models.Document, error) {
		return s.engine.RequestRevision(d, actor.Role, in)
	})
}

func (s *Service) Resubmit(ctx context.Context, actor Actor, id string, version int64) (View, error) {
	return s.apply(ctx, actor, id, version, models.ActionResubmit, func(d models.Document) (models.Document, error) {
		return s.engine.Resubmit(d, actor.Role)
	})
}

func (s *Service) Archive(ctx context.Context, actor Actor, id string, version int64) (View, error) {
	return s.apply(ctx, actor, id, version, models.ActionArchive, func(d models.Document) (models.Document, error) {
		return s.engine.Archive(d, actor.Role)
	})
}

// Delete removes the document and every reference to it. It returns how
// many other documents lost a reference.
func (s *Service) Delete(ctx context.Context, actor Actor, id string, version int64) (int64, error) {
	const a = models.ActionDelete
	doc, err := s.load(ctx, a, id)
	if err != nil {
		return 0, err
	}
	if err := expectVersion(doc, a, version); err != nil {
		return 0, err
	}
	if err := s.engine.CheckDelete(doc, actor.Role); err != nil {
		s.rejected(ctx, actor, doc, a, err)
		return 0, err
	}
	cleaned, err := s.repo.Delete(ctx, id, documentstore.PreconditionOf(doc))
	if err != nil {
		return 0, storeErr(a, doc.Status, id, err)
	}
	if s.activities != nil {
		if n, err := s.activities.DeleteByDocument(ctx, id); err != nil {
			s.log.Warn("activity log not removed with its document", zap.String("document_id", id), zap.Error(err))
		} else if n > 0 {
			s.log.Info("activity log removed with its document", zap.String("document_id", id), zap.Int64("activities", n))
		}
	}
	gone := doc
	gone.Status = ""
	gone.UpdatedAt = time.Now().UTC()
	s.committed(ctx, actor, doc.Status, gone, audit.EventAjuanDeleted,
		map[string]string{"references_removed": strconv.FormatInt(cleaned, 10)})
	return cleaned, nil
}

// Related resolves both directions of the relation graph for id.
func (s *Service) Related(ctx context.Context, id string) (Related, error) {
	doc, err := s.load(ctx, "", id)
	if err != nil {
		return Related{}, err
	}
	out := Related{Outgoing: []Summary{}, Incoming: []Summary{}}

	targets, err := s.repo.GetMany(ctx, doc.RelatedIDs)
	if err != nil {
		return Related{}, err
	}
	byID := make(map[string]models.Document, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
	}
	for _, rid := range doc.RelatedIDs {
		if t, ok := byID[rid]; ok {
			out.Outgoing = append(out.Outgoing, summarize(t))
		}
	}

	refs, err := s.repo.ReferencedBy(ctx, id)
	if err != nil {
		return Related{}, err
	}
	for _, r := range refs {
		out.Incoming = append(out.Incoming, summarize(r))
	}
	return out, nil
}

func summarize(d models.Document) Summary {
	return Summary{ID: d.ID, Level: d.Level, Status: d.Status, Title: d.Title}
}

func eventFor(a models.Action, saved models.Document) string {
	switch a {
	case models.ActionSubmit:
		return audit.EventAjuanSubmitted
	case models.ActionApprove:
		if saved.Status == models.StatusSelesai {
			return audit.EventAjuanCompleted
		}
		return audit.EventAjuanApproved
	case models.ActionRequestRevision:
		return audit.EventAjuanRevisionRequested
	case models.ActionResubmit:
		return audit.EventAjuanResubmitted
	case models.ActionArchive:
		return audit.EventAjuanArchived
	case models.ActionDelete:
		return audit.EventAjuanDeleted
	}
	return audit.EventAjuanEdited
}

func actionFor(eventType string) models.Action {
	switch eventType {
	case audit.EventAjuanCreated:
		return models.ActionCreate
	case audit.EventAjuanEdited:
		return models.ActionEdit
	case audit.EventAjuanSubmitted:
		return models.ActionSubmit
	case audit.EventAjuanApproved, audit.EventAjuanCompleted:
		return models.ActionApprove
	case audit.EventAjuanRevisionRequested:
		return models.ActionRequestRevision
	case audit.EventAjuanResubmitted:
		return models.ActionResubmit
	case audit.EventAjuanArchived:
		return models.ActionArchive
	case audit.EventAjuanDeleted:
		return models.ActionDelete
	}
	return ""
}

func relationDetails(warns []workflow.RelationWarning) map[string]string {
	if len(warns) == 0 {
		return nil
	}
	return map[string]string{"relations_dropped": strconv.Itoa(len(warns))}
}

// committed records a successful write. Publishing failures are logged and
// never reported to the caller: the write already happened.
func (s *Service) committed(ctx context.Context, actor Actor, from models.Status, doc models.Document, eventType string, details map[string]string) {
	a := actionFor(eventType)
	s.audit.Workflow(ctx, actor.Request, auditlog.WorkflowEvent{
		EventType:  eventType,
		DocumentID: doc.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     a,
		From:       from,
		To:         doc.Status,
		Details:    details,
	})

	ev := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		DocumentID: doc.ID,
		Level:      doc.Level,
		Action:     a,
		From:       from,
		To:         doc.Status,
		ActorRole:  actor.Role,
		Version:    doc.Version,
		OccurredAt: doc.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("workflow event not published",
			zap.String("document_id", doc.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// rejected records a refused action. Only authorization and transition
// failures are audited; validation noise is not.
func (s *Service) rejected(ctx context.Context, actor Actor, doc models.Document, a models.Action, err error) {
	kind := workflow.KindOf(err)
	if kind != workflow.KindUnauthorized && kind != workflow.KindInvalidTransition {
		return
	}
	s.audit.Workflow(ctx, actor.Request, auditlog.WorkflowEvent{
		EventType:  audit.EventAjuanActionRejected,
		DocumentID: doc.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     a,
		From:       doc.Status,
		Failure:    fmt.Sprintf("%s: %v", kind, err),
	})
}
