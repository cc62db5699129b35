// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts account provisioning under "/users".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleLembagaKerjaSama))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	return r
}
