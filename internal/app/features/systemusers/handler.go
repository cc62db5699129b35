// internal/app/features/systemusers/handler.go
package systemusers

import (
	"encoding/json"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/kerjasama/internal/app/store/users"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/limits"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"go.uber.org/zap"
)

// Handler provisions the accounts whose role becomes the acting identity in
// the workflow. Only the cooperation office manages accounts.
type Handler struct {
	Users    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, AuditLog: auditLog, Log: logger}
}

type createRequest struct {
	Username string      `json:"username"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	UnitID   string      `json:"unitId"`
	Password string      `json:"password"`
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxCredentialsBody)).Decode(&req); err != nil {
		jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		UnitID:   req.UnitID,
	}, req.Password)
	switch {
	case errors.Is(err, userstore.ErrInvalidUser):
		jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, err.Error())
		return
	case errors.Is(err, userstore.ErrDuplicateUsername):
		jsonresp.Error(w, http.StatusConflict, "conflict", err.Error())
		return
	case err != nil:
		h.Log.Error("create user", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}

	if actor, ok := auth.CurrentUser(r); ok {
		h.AuditLog.UserCreated(ctx, r, actor.ID, actor.Role, u.ID.Hex(), u.Role)
	}
	jsonresp.Created(w, "User created", u)
}

// ServeList handles GET /users?role=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var role models.Role
	if v := r.URL.Query().Get("role"); v != "" {
		parsed, err := models.ParseRole(v)
		if err != nil {
			jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, err.Error())
			return
		}
		role = parsed
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list users")
	defer cancel()
	users, err := h.Users.List(ctx, role)
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}
	jsonresp.OK(w, "", users)
}
