// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/policy/deletepolicy"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/system/events"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for kerjasama.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, relation_mode, etc.
//   - Environment variables: KERJASAMA_MONGO_URI, KERJASAMA_RELATION_MODE, etc.
//   - Command-line flags: --mongo_uri, --relation_mode, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kerjasama", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "kerjasama-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	// Workflow policy
	{Name: "relation_mode", Default: "strict", Desc: "Related id handling: 'strict' rejects, 'filter' drops with a warning"},
	{Name: "relation_disallow_same_level", Default: true, Desc: "Reject relations between documents of the same level"},
	{Name: "delete_policy", Default: "", Desc: "CEL expression deciding delete rights (blank uses the built-in rule)"},
	{Name: "expiring_window_days", Default: 90, Desc: "Days before its end date a completed agreement is reported as EXPIRING"},

	// Events
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL for workflow events (blank disables publishing)"},
	{Name: "amqp_queue", Default: events.DefaultQueue, Desc: "Queue that receives workflow events"},

	// Rate limiting
	{Name: "action_rate_limit", Default: 60, Desc: "State-changing ajuan requests per user per minute (0 disables)"},
	{Name: "action_rate_burst", Default: 20, Desc: "Burst size for the ajuan action limiter"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy CIDRs whose X-Forwarded-For is believed (blank trusts none)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_workflow", Default: "all", Desc: "Workflow event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries and multi-step writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for startup tasks such as index builds"},

	// First-run administrator
	{Name: "admin_username", Default: "admin", Desc: "Username of the LEMBAGA_KERJA_SAMA account seeded into an empty database"},
	{Name: "admin_password", Default: "", Desc: "Password for the seeded account (blank skips seeding)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KERJASAMA_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KERJASAMA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 12*time.Hour),

		RelationMode:              appValues.String("relation_mode"),
		RelationDisallowSameLevel: appValues.Bool("relation_disallow_same_level"),
		DeletePolicy:              appValues.String("delete_policy"),
		ExpiringWindowDays:        appValues.Int("expiring_window_days"),

		AMQPURL:   appValues.String("amqp_url"),
		AMQPQueue: appValues.String("amqp_queue"),

		ActionRateLimit: float64(appValues.Int("action_rate_limit")),
		ActionRateBurst: appValues.Int("action_rate_burst"),
		TrustedProxies:  appValues.String("trusted_proxies"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogWorkflow: appValues.String("audit_log_workflow"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		AdminUsername: appValues.String("admin_username"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Everything that can be checked without a database is checked here so a
// typo in the delete policy or relation mode fails fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSessionKey || len(appCfg.SessionKey) < 32 {
			return errors.New("session_key must be a random value of 32+ chars in production")
		}
	}

	if _, ok := workflow.ParseRelationMode(appCfg.RelationMode); !ok {
		return fmt.Errorf("relation_mode %q: want 'strict' or 'filter'", appCfg.RelationMode)
	}
	if err := deletepolicy.Validate(appCfg.DeletePolicy); err != nil {
		logger.Error("invalid delete policy", zap.String("expr", appCfg.DeletePolicy), zap.Error(err))
		return fmt.Errorf("delete_policy: %w", err)
	}

	for name, v := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_workflow": appCfg.AuditLogWorkflow,
	} {
		if !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s %q: want 'all', 'db', 'log', or 'off'", name, v)
		}
	}

	if appCfg.ExpiringWindowDays < 0 {
		return errors.New("expiring_window_days must not be negative")
	}
	if appCfg.ActionRateLimit < 0 || appCfg.ActionRateBurst < 0 {
		return errors.New("action_rate_limit and action_rate_burst must not be negative")
	}
	if _, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted_proxies: %w", err)
	}
	if appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < 8 {
		return errors.New("admin_password must be at least 8 characters")
	}

	return nil
}
