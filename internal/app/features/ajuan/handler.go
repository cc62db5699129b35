// internal/app/features/ajuan/handler.go
package ajuan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/limits"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"go.uber.org/zap"
)

type Handler struct {
	Svc     *Service
	Limiter *ratelimit.Limiter
	Log     *zap.Logger
}

// NewHandler constructs the ajuan handler. A nil limiter disables rate
// limiting.
func NewHandler(svc *Service, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Limiter: limiter, Log: logger}
}

func actorOf(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: u.ID, Role: u.Role, Request: r}, true
}

// statusFor maps workflow error kinds to HTTP status codes.
func statusFor(k workflow.Kind) int {
	switch k {
	case workflow.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case workflow.KindUnauthorized:
		return http.StatusForbidden
	case workflow.KindValidation:
		return http.StatusBadRequest
	case workflow.KindConflict:
		return http.StatusConflict
	case workflow.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError answers with the typed error's kind, or a bare 500 for anything
// unexpected.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if k := workflow.KindOf(err); k != "" {
		jsonresp.Error(w, statusFor(k), string(k), err.Error())
		return
	}
	h.Log.Error("ajuan request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
}

// decode reads an optional JSON body into v. An empty body leaves v alone.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxAjuanBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	jsonresp.Error(w, http.StatusBadRequest, string(workflow.KindValidation), "invalid request: "+err.Error())
}

// versionOf returns the version the client expects. A body field wins over
// an If-Match header.
func versionOf(r *http.Request, body int64) int64 {
	if body > 0 {
		return body
	}
	v := strings.Trim(strings.TrimPrefix(r.Header.Get("If-Match"), "W/"), `"`)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// limit applies the per-actor token bucket to state-changing requests.
func (h *Handler) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := auth.CurrentUser(r); ok && !h.Limiter.Allow(u.ID) {
			h.Log.Warn("ajuan action rate limited",
				zap.String("user_id", u.ID),
				zap.String("role", string(u.Role)))
			jsonresp.Error(w, http.StatusTooManyRequests, jsonresp.CodeRateLimited, "too many requests; slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ctx bounds the store work of one request.
func (h *Handler) ctx(r *http.Request, d time.Duration, op string) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(r.Context(), d, h.Log, op)
}

func warningsOrNil(w []workflow.RelationWarning) any {
	if len(w) == 0 {
		return nil
	}
	return w
}
