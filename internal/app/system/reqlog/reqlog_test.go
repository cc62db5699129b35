// internal/app/system/reqlog/reqlog_test.go
package reqlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/app/system/reqlog"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_LogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := reqlog.Middleware(zap.New(core), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest("POST", "/ajuan/d1/submit", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Role: models.RoleFakultas})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	e := logs.All()[0]
	fields := e.ContextMap()
	if e.Level != zapcore.InfoLevel {
		t.Errorf("level = %v", e.Level)
	}
	if fields["status"] != int64(http.StatusConflict) {
		t.Errorf("status = %v", fields["status"])
	}
	if fields["role"] != "FAKULTAS" || fields["path"] != "/ajuan/d1/submit" {
		t.Errorf("fields = %v", fields)
	}
}

func TestMiddleware_Levels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   zapcore.Level
	}{
		{"/health", http.StatusOK, zapcore.DebugLevel},
		{"/ajuan", http.StatusInternalServerError, zapcore.ErrorLevel},
		{"/ajuan", 0, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		h := reqlog.Middleware(zap.New(core), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tt.status != 0 {
				w.WriteHeader(tt.status)
			}
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.path, nil))
		if got := logs.All()[0].Level; got != tt.want {
			t.Errorf("%s %d: level %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestMiddleware_ClientIP(t *testing.T) {
	proxies, err := ratelimit.ParseTrustedProxies("10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		proxies *ratelimit.TrustedProxies
		remote  string
		want    string
	}{
		{"untrusted peer", nil, "198.51.100.20:4000", "198.51.100.20"},
		{"trusted proxy", proxies, "10.1.2.3:80", "203.0.113.9"},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		h := reqlog.Middleware(zap.New(core), tt.proxies)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest("GET", "/ajuan", nil)
		req.RemoteAddr = tt.remote
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got := logs.All()[0].ContextMap()["client_ip"]; got != tt.want {
			t.Errorf("%s: client_ip = %v, want %s", tt.name, got, tt.want)
		}
	}
}
