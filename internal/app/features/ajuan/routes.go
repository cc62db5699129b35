// internal/app/features/ajuan/routes.go
package ajuan

import (
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the Action API under the path where this router is mounted
// (typically "/ajuan" from bootstrap). Every route needs a signed-in user;
// the session role is the acting identity.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/allowed-actions", h.ServeAllowedActions)
	r.Get("/running", h.ServeRunning)
	r.Get("/{id}", h.ServeGet)
	r.Get("/{id}/related", h.ServeRelated)
	r.Get("/{id}/activities", h.ServeActivities)

	r.Group(func(wr chi.Router) {
		wr.Use(h.limit)

		wr.Post("/", h.HandleCreate)
		wr.Put("/{id}", h.HandleEdit)
		wr.Delete("/{id}", h.HandleDelete)
		wr.Post("/{id}/submit", h.HandleSubmit())
		wr.Post("/{id}/resubmit", h.HandleResubmit())
		wr.Post("/{id}/review/approve", h.HandleApprove())
		wr.Post("/{id}/review/revision", h.HandleRequestRevision())
		wr.Post("/{id}/archive", h.HandleArchive())

		wr.Post("/{id}/activities", h.HandleAddActivity)
		wr.Put("/{id}/activities/{activityId}", h.HandleUpdateActivity)
		wr.Delete("/{id}/activities/{activityId}", h.HandleRemoveActivity)
	})

	return r
}
