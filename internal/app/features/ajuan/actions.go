// internal/app/features/ajuan/actions.go
package ajuan

import (
	"context"
	"net/http"
	"strconv"

	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createRequest struct {
	ID         string       `json:"id"`
	Level      models.Level `json:"level"`
	RelatedIDs []string     `json:"relatedIds"`
	models.Details
}

type editRequest struct {
	Version    int64           `json:"version"`
	Details    *models.Details `json:"details"`
	RelatedIDs *[]string       `json:"relatedIds"`
}

type actionRequest struct {
	Version int64 `json:"version"`
	workflow.ReviewInput
}

// ServeList handles GET /ajuan?status=&level=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	q := r.URL.Query()

	var f documentstore.ListFilter
	if v := q.Get("status"); v != "" {
		s, err := models.ParseStatus(v)
		if err != nil {
			badRequest(w, err)
			return
		}
		f.Status = s
	}
	if v := q.Get("level"); v != "" {
		l, err := models.ParseLevel(v)
		if err != nil {
			badRequest(w, err)
			return
		}
		f.Level = l
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(w, err)
			return
		}
		f.Limit = n
	}

	ctx, cancel := h.ctx(r, timeouts.Medium(), "list ajuan")
	defer cancel()
	views, err := h.Svc.List(ctx, actor, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "", views)
}

// ServeGet handles GET /ajuan/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	ctx, cancel := h.ctx(r, timeouts.Short(), "get ajuan")
	defer cancel()
	v, err := h.Svc.Get(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "", v)
}

// ServeRelated handles GET /ajuan/{id}/related.
func (h *Handler) ServeRelated(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r, timeouts.Medium(), "related ajuan")
	defer cancel()
	rel, err := h.Svc.Related(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "", rel)
}

// ServeAllowedActions handles GET /ajuan/allowed-actions?status=&role=.
// role defaults to the caller's role. Both accept any letter case; unknown
// values are a validation error.
func (h *Handler) ServeAllowedActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := models.ParseStatus(q.Get("status"))
	if err != nil {
		badRequest(w, err)
		return
	}

	var role models.Role
	if v := q.Get("role"); v != "" {
		if role, err = models.ParseRole(v); err != nil {
			badRequest(w, err)
			return
		}
	} else if actor, ok := actorOf(r); ok {
		role = actor.Role
	}

	jsonresp.OK(w, "", map[string]any{
		"status":         status,
		"role":           role,
		"allowedActions": h.Svc.Engine().AllowedActions(status, role),
	})
}

// HandleCreate handles POST /ajuan.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	ctx, cancel := h.ctx(r, timeouts.Medium(), "create ajuan")
	defer cancel()
	v, warns, err := h.Svc.Create(ctx, actor, workflow.CreateInput{
		ID:         req.ID,
		Level:      req.Level,
		Details:    req.Details,
		RelatedIDs: req.RelatedIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.WithWarnings(w, http.StatusCreated, "Ajuan created", v, warningsOrNil(warns))
}

// HandleEdit handles PUT /ajuan/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	var req editRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	ctx, cancel := h.ctx(r, timeouts.Medium(), "edit ajuan")
	defer cancel()
	v, warns, err := h.Svc.Edit(ctx, actor, chi.URLParam(r, "id"), versionOf(r, req.Version), workflow.Patch{
		Details:    req.Details,
		RelatedIDs: req.RelatedIDs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.WithWarnings(w, http.StatusOK, "Ajuan updated", v, warningsOrNil(warns))
}

// HandleDelete handles DELETE /ajuan/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	var req actionRequest
	if err := decode(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	ctx, cancel := h.ctx(r, timeouts.Long(), "delete ajuan")
	defer cancel()
	cleaned, err := h.Svc.Delete(ctx, actor, id, versionOf(r, req.Version))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "Ajuan deleted", map[string]any{"id": id, "referencesRemoved": cleaned})
}

type actionFunc func(ctx context.Context, actor Actor, id string, version int64, in workflow.ReviewInput) (View, error)

// transition builds the handler for one status-changing action.
func (h *Handler) transition(op, message string, fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := actorOf(r)
		var req actionRequest
		if err := decode(w, r, &req); err != nil {
			badRequest(w, err)
			return
		}

		ctx, cancel := h.ctx(r, timeouts.Medium(), op)
		defer cancel()
		v, err := fn(ctx, actor, chi.URLParam(r, "id"), versionOf(r, req.Version), req.ReviewInput)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		jsonresp.OK(w, message, v)
	}
}

func (h *Handler) HandleSubmit() http.HandlerFunc {
	return h.transition("submit ajuan", "Ajuan submitted",
		func(ctx context.Context, a Actor, id string, v int64, _ workflow.ReviewInput) (View, error) {
			return h.Svc.Submit(ctx, a, id, v)
		})
}

func (h *Handler) HandleResubmit() http.HandlerFunc {
	return h.transition("resubmit ajuan", "Ajuan resubmitted",
		func(ctx context.Context, a Actor, id string, v int64, _ workflow.ReviewInput) (View, error) {
			return h.Svc.Resubmit(ctx, a, id, v)
		})
}

func (h *Handler) HandleApprove() http.HandlerFunc {
	return h.transition("approve ajuan", "Review recorded", h.Svc.Approve)
}

func (h *Handler) HandleRequestRevision() http.HandlerFunc {
	return h.transition("request revision", "Revision requested", h.Svc.RequestRevision)
}

func (h *Handler) HandleArchive() http.HandlerFunc {
	return h.transition("archive ajuan", "Ajuan archived",
		func(ctx context.Context, a Actor, id string, v int64, _ workflow.ReviewInput) (View, error) {
			return h.Svc.Archive(ctx, a, id, v)
		})
}
