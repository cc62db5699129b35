// internal/app/features/ajuan/activityhandlers.go
package ajuan

import (
	"net/http"

	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// ServeRunning handles GET /ajuan/running?validity=&level=.
func (h *Handler) ServeRunning(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	q := r.URL.Query()

	var f RunningFilter
	if v := q.Get("validity"); v != "" {
		x, err := models.ParseValidity(v)
		if err != nil {
			badRequest(w, err)
			return
		}
		f.Validity = x
	}
	if v := q.Get("level"); v != "" {
		l, err := models.ParseLevel(v)
		if err != nil {
			badRequest(w, err)
			return
		}
		f.Level = l
	}

	ctx, cancel := h.ctx(r, timeouts.Medium(), "running agreements")
	defer cancel()
	out, err := h.Svc.Running(ctx, actor, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "", out)
}

// ServeActivities handles GET /ajuan/{id}/activities.
func (h *Handler) ServeActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r, timeouts.Short(), "list activities")
	defer cancel()
	acts, err := h.Svc.Activities(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "", acts)
}

// HandleAddActivity handles POST /ajuan/{id}/activities.
func (h *Handler) HandleAddActivity(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	var in workflow.ActivityInput
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}

	ctx, cancel := h.ctx(r, timeouts.Short(), "add activity")
	defer cancel()
	a, err := h.Svc.AddActivity(ctx, actor, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.Created(w, "Activity added", a)
}

// HandleUpdateActivity handles PUT /ajuan/{id}/activities/{activityId}.
func (h *Handler) HandleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	var in workflow.ActivityInput
	if err := decode(w, r, &in); err != nil {
		badRequest(w, err)
		return
	}

	ctx, cancel := h.ctx(r, timeouts.Short(), "update activity")
	defer cancel()
	a, err := h.Svc.UpdateActivity(ctx, actor, chi.URLParam(r, "id"), chi.URLParam(r, "activityId"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "Activity updated", a)
}

// HandleRemoveActivity handles DELETE /ajuan/{id}/activities/{activityId}.
func (h *Handler) HandleRemoveActivity(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorOf(r)
	id := chi.URLParam(r, "activityId")

	ctx, cancel := h.ctx(r, timeouts.Short(), "remove activity")
	defer cancel()
	if err := h.Svc.RemoveActivity(ctx, actor, chi.URLParam(r, "id"), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonresp.OK(w, "Activity removed", map[string]any{"id": id})
}
