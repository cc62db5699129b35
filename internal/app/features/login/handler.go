// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Username: the human-readable string users type to log in

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/kerjasama/internal/app/store/users"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/limits"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter(nil)
	}
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   auditLog,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /login.
//
//	{ "username":"lki", "password":"…" }
//
// On success the session cookie is set and the signed-in user is returned.
// Unknown usernames, wrong passwords and disabled accounts all answer 401
// with the same message.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxCredentialsBody)).Decode(&req); err != nil {
		jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, "username and password are required")
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Username); !ok {
		h.AuditLog.LoginFailed(r.Context(), r, req.Username, "rate_limited")
		jsonresp.Error(w, http.StatusTooManyRequests, jsonresp.CodeRateLimited, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, userstore.ErrInvalidCredentials) {
		h.AuditLog.LoginFailed(ctx, r, req.Username, "invalid_credentials")
		jsonresp.Error(w, http.StatusUnauthorized, jsonresp.CodeUnauthenticated, "invalid username or password")
		return
	}
	if err != nil {
		h.Log.Error("login: authenticate", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}
	h.Limiter.ResetUser(req.Username)
	h.AuditLog.LoginSuccess(ctx, r, u.ID.Hex(), u.Role, u.Username)

	jsonresp.OK(w, "Signed in", auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.Username,
		Role:    u.Role,
		UnitID:  u.UnitID,
	})
}
