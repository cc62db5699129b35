// internal/app/features/ajuan/activities.go
package ajuan

import (
	"context"
	"errors"
	"sort"

	activitystore "github.com/dalemusser/kerjasama/internal/app/store/activities"
	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// ActivityRepository stores the activity log of completed agreements.
// *activitystore.Store implements it against MongoDB.
type ActivityRepository interface {
	Insert(ctx context.Context, a models.Activity) (models.Activity, error)
	Get(ctx context.Context, docID, id string) (models.Activity, error)
	ListByDocument(ctx context.Context, docID string) ([]models.Activity, error)
	Replace(ctx context.Context, a models.Activity) (models.Activity, error)
	Delete(ctx context.Context, docID, id string) error
	DeleteByDocument(ctx context.Context, docID string) (int64, error)
}

var errNoActivityLog = errors.New("activity log store not configured")

// RunningFilter narrows the running-agreements list. Zero values match
// everything.
type RunningFilter struct {
	Validity models.Validity
	Level    models.Level
}

// ValidityCounts tallies running agreements before the validity filter.
type ValidityCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

// Running is the list of completed agreements with their validity.
type Running struct {
	Counts ValidityCounts `json:"counts"`
	Items  []View         `json:"items"`
}

// runningLimit caps how many completed agreements one listing reads.
const runningLimit = 500

// Running lists completed agreements, the ones closest to their end date
// first. Agreements without an end date come last.
func (s *Service) Running(ctx context.Context, actor Actor, f RunningFilter) (Running, error) {
	docs, err := s.repo.List(ctx, documentstore.ListFilter{
		Status: models.StatusSelesai,
		Level:  f.Level,
		Limit:  runningLimit,
	})
	if err != nil {
		return Running{}, err
	}

	out := Running{Items: []View{}}
	for _, d := range docs {
		v := s.view(d, actor.Role)
		out.Counts.Total++
		switch v.Validity {
		case models.ValidityActive:
			out.Counts.Active++
		case models.ValidityExpiring:
			out.Counts.Expiring++
		case models.ValidityExpired:
			out.Counts.Expired++
		}
		if f.Validity == "" || v.Validity == f.Validity {
			out.Items = append(out.Items, v)
		}
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		a, b := out.Items[i].EndDate, out.Items[j].EndDate
		if (a == "") != (b == "") {
			return b == ""
		}
		if a != b {
			return a < b
		}
		return out.Items[i].ID < out.Items[j].ID
	})
	return out, nil
}

func activityErr(docID, id string, err error) error {
	switch {
	case errors.Is(err, activitystore.ErrNotFound):
		return workflow.NotFound("activity %s not found on document %s", id, docID)
	case errors.Is(err, activitystore.ErrDuplicate):
		return workflow.Conflict(models.ActionLogActivity, models.StatusSelesai)
	}
	return err
}

// Activities returns the activity log of a completed agreement by date.
func (s *Service) Activities(ctx context.Context, docID string) ([]models.Activity, error) {
	if s.activities == nil {
		return nil, errNoActivityLog
	}
	doc, err := s.load(ctx, models.ActionLogActivity, docID)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CanReadActivities(doc); err != nil {
		return nil, err
	}
	return s.activities.ListByDocument(ctx, docID)
}

// writableLog loads the document and checks that actor may change its log.
func (s *Service) writableLog(ctx context.Context, actor Actor, docID string) (models.Document, error) {
	if s.activities == nil {
		return models.Document{}, errNoActivityLog
	}
	doc, err := s.load(ctx, models.ActionLogActivity, docID)
	if err != nil {
		return models.Document{}, err
	}
	if err := s.engine.CanWriteActivities(doc, actor.Role); err != nil {
		s.rejected(ctx, actor, doc, models.ActionLogActivity, err)
		return models.Document{}, err
	}
	return doc, nil
}

func (s *Service) AddActivity(ctx context.Context, actor Actor, docID string, in workflow.ActivityInput) (models.Activity, error) {
	doc, err := s.writableLog(ctx, actor, docID)
	if err != nil {
		return models.Activity{}, err
	}
	a, err := s.engine.NewActivity(doc, actor.ID, actor.Role, in)
	if err != nil {
		return models.Activity{}, err
	}
	saved, err := s.activities.Insert(ctx, a)
	if err != nil {
		return models.Activity{}, activityErr(docID, a.ID, err)
	}
	s.activityLogged(ctx, actor, doc, audit.EventActivityAdded, saved.ID)
	return saved, nil
}

func (s *Service) UpdateActivity(ctx context.Context, actor Actor, docID, id string, in workflow.ActivityInput) (models.Activity, error) {
	doc, err := s.writableLog(ctx, actor, docID)
	if err != nil {
		return models.Activity{}, err
	}
	cur, err := s.activities.Get(ctx, docID, id)
	if err != nil {
		return models.Activity{}, activityErr(docID, id, err)
	}
	next, err := s.engine.ReviseActivity(cur, in)
	if err != nil {
		return models.Activity{}, err
	}
	saved, err := s.activities.Replace(ctx, next)
	if err != nil {
		return models.Activity{}, activityErr(docID, id, err)
	}
	s.activityLogged(ctx, actor, doc, audit.EventActivityUpdated, id)
	return saved, nil
}

func (s *Service) RemoveActivity(ctx context.Context, actor Actor, docID, id string) error {
	doc, err := s.writableLog(ctx, actor, docID)
	if err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, docID, id); err != nil {
		return activityErr(docID, id, err)
	}
	s.activityLogged(ctx, actor, doc, audit.EventActivityRemoved, id)
	return nil
}

// activityLogged audits a change to the activity log. The document itself
// does not change, so no workflow event is published.
func (s *Service) activityLogged(ctx context.Context, actor Actor, doc models.Document, eventType, activityID string) {
	s.audit.Workflow(ctx, actor.Request, auditlog.WorkflowEvent{
		EventType:  eventType,
		DocumentID: doc.ID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.ActionLogActivity,
		From:       doc.Status,
		To:         doc.Status,
		Details:    map[string]string{"activity_id": activityID},
	})
}
