// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// Handler serves the identity of the signed-in user.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type me struct {
	auth.SessionUser
	CanPropose bool `json:"canPropose"`
	// Stage is the review stage this role owns, empty for proposer-only roles.
	Stage models.Status `json:"stage,omitempty"`
}

// ServeMe handles GET /me. The dashboard uses it to pick the acting role.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonresp.Error(w, http.StatusUnauthorized, jsonresp.CodeUnauthenticated, "sign in required")
		return
	}
	out := me{SessionUser: *u, CanPropose: u.Role.CanPropose()}
	for _, s := range workflow.ReviewStages() {
		if o, _ := workflow.StageOwner(s); o == u.Role {
			out.Stage = s
			break
		}
	}
	jsonresp.OK(w, "", out)
}
