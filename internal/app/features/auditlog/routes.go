// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail under "/audit". Only the cooperation office
// reads it.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleLembagaKerjaSama))

		pr.Get("/", h.ServeList)
	})

	return r
}
