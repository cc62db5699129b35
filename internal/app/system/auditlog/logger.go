// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"go.uber.org/zap"
)

// Destination settings for one event category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration, one destination per category.
type Config struct {
	Auth     string
	Admin    string
	Workflow string

	// Proxies whose X-Forwarded-For is believed; nil trusts none.
	Proxies *ratelimit.TrustedProxies
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// ValidSetting reports whether v is a recognised destination.
func ValidSetting(v string) bool {
	switch v {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// clientIP reads forwarding headers only behind a configured proxy.
func (l *Logger) clientIP(r *http.Request) string {
	if l == nil || r == nil {
		return ""
	}
	return l.config.Proxies.ClientIP(r)
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.ActorRole != "" {
		fields = append(fields, zap.String("actor_role", event.ActorRole))
	}
	if event.DocumentID != "" {
		fields = append(fields, zap.String("document_id", event.DocumentID))
	}
	if event.FromStatus != "" || event.ToStatus != "" {
		fields = append(fields, zap.String("from_status", event.FromStatus), zap.String("to_status", event.ToStatus))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting. A nil
// Logger is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryWorkflow:
		setting = l.config.Workflow
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID string, role models.Role, username string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   userID,
		ActorRole: string(role),
		IP:        l.clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"username": username},
	})
}

// LoginFailed does not say whether the username exists; reason is for the
// audit trail only.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, username, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            l.clientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"username": username},
	})
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string, role models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   userID,
		ActorRole: string(role),
		IP:        l.clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// --- Admin Events ---

func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID string, actorRole models.Role, newUserID string, role models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		ActorID:   actorID,
		ActorRole: string(actorRole),
		IP:        l.clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"user_id": newUserID, "role": string(role)},
	})
}

// --- Workflow Events ---

// WorkflowEvent describes one ajuan action. A non-empty Failure marks the
// action as rejected.
type WorkflowEvent struct {
	EventType  string
	DocumentID string
	ActorID    string
	ActorRole  models.Role
	Action     models.Action
	From       models.Status
	To         models.Status
	Failure    string
	Details    map[string]string
}

func (l *Logger) Workflow(ctx context.Context, r *http.Request, ev WorkflowEvent) {
	details := ev.Details
	if ev.Action != "" {
		if details == nil {
			details = map[string]string{}
		}
		details["action"] = string(ev.Action)
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     ev.EventType,
		ActorID:       ev.ActorID,
		ActorRole:     string(ev.ActorRole),
		DocumentID:    ev.DocumentID,
		FromStatus:    string(ev.From),
		ToStatus:      string(ev.To),
		IP:            l.clientIP(r),
		UserAgent:     userAgent(r),
		Success:       ev.Failure == "",
		FailureReason: ev.Failure,
		Details:       details,
	})
}
