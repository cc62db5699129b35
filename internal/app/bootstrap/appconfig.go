// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (KERJASAMA_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, log level and the environment name; everything here is
// specific to the ajuan workflow service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: kerjasama-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Workflow policy
	RelationMode              string // "strict" rejects bad related ids, "filter" drops them with a warning
	RelationDisallowSameLevel bool   // reject links between documents of the same level
	DeletePolicy              string // CEL expression over status, role, level, owner; blank means the built-in rule
	ExpiringWindowDays        int    // days before endDate a completed agreement counts as EXPIRING

	// Event publishing (blank URL disables publishing)
	AMQPURL   string
	AMQPQueue string

	// Per-user limit on state-changing ajuan requests
	ActionRateLimit float64 // requests per minute; 0 disables
	ActionRateBurst int

	// Proxies whose forwarding headers name the real client; blank means
	// the client IP is always the connection's remote address
	TrustedProxies string

	// Audit logging destinations: "all", "db", "log", or "off"
	AuditLogAuth     string
	AuditLogAdmin    string
	AuditLogWorkflow string

	// Operation timeouts (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// First-run administrator, created only when the users collection is empty
	AdminUsername string
	AdminPassword string
}
