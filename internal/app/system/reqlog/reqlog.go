// internal/app/system/reqlog/reqlog.go
package reqlog

import (
	"net/http"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware logs one line per request once the handler returns. Health
// checks are logged at debug level. proxies decides which forwarding
// headers name the client and may be nil.
func Middleware(logger *zap.Logger, proxies *ratelimit.TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("client_ip", proxies.ClientIP(r)),
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if u, ok := auth.CurrentUser(r); ok {
				fields = append(fields, zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
			}

			switch {
			case r.URL.Path == "/health":
				logger.Debug("http request", fields...)
			case status >= 500:
				logger.Error("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
