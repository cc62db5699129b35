// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	ajuanfeature "github.com/dalemusser/kerjasama/internal/app/features/ajuan"
	auditfeature "github.com/dalemusser/kerjasama/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/kerjasama/internal/app/features/health"
	loginfeature "github.com/dalemusser/kerjasama/internal/app/features/login"
	logoutfeature "github.com/dalemusser/kerjasama/internal/app/features/logout"
	systemusersfeature "github.com/dalemusser/kerjasama/internal/app/features/systemusers"
	userinfofeature "github.com/dalemusser/kerjasama/internal/app/features/userinfo"
	"github.com/dalemusser/kerjasama/internal/app/policy/deletepolicy"
	activitystore "github.com/dalemusser/kerjasama/internal/app/store/activities"
	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	userstore "github.com/dalemusser/kerjasama/internal/app/store/users"
	"github.com/dalemusser/kerjasama/internal/app/system/auditlog"
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/events"
	"github.com/dalemusser/kerjasama/internal/app/system/htmlsanitize"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/app/system/reqlog"
	"github.com/dalemusser/kerjasama/internal/app/system/workers"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the workflow engine from the
// configured policies, the session layer, and mounts the feature routers:
//
//	/health  liveness and database ping
//	/login   /logout  /me
//	/ajuan   the document workflow, running agreements and activity logs
//	/audit   audit log queries (LEMBAGA_KERJA_SAMA)
//	/users   account administration (LEMBAGA_KERJA_SAMA)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Re-read the user on each request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	engine, err := newEngine(appCfg, logger)
	if err != nil {
		return nil, err
	}

	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}

	users := userstore.New(deps.MongoDatabase)
	auditStore := audit.New(deps.MongoDatabase)
	proxies, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies)
	if err != nil {
		logger.Error("trusted proxies parse failed", zap.Error(err))
		return nil, err
	}
	if proxies.Len() > 0 {
		logger.Info("forwarding headers trusted", zap.String("trusted_proxies", appCfg.TrustedProxies))
	}

	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Admin:    appCfg.AuditLogAdmin,
		Workflow: appCfg.AuditLogWorkflow,
		Proxies:  proxies,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Loads SessionUser into context if signed in; the request logger sits
	// after it so it can report the role.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(reqlog.Middleware(logger, proxies))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginLimiter := ratelimit.NewLoginLimiter(proxies)
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, loginLimiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Document workflow
	docs := documentstore.New(deps.MongoDatabase, logger)
	svc := ajuanfeature.NewService(docs, engine, auditLog, pub, logger).
		WithActivities(activitystore.New(deps.MongoDatabase))
	limiter := ratelimit.New(appCfg.ActionRateLimit, appCfg.ActionRateBurst)
	ajuanHandler := ajuanfeature.NewHandler(svc, limiter, logger)
	r.Mount("/ajuan", ajuanfeature.Routes(ajuanHandler, sessionMgr))

	startLimiterSweep(map[string]workers.Sweeper{"actions": limiter, "login": loginLimiter}, logger)

	// Administration
	auditHandler := auditfeature.NewHandler(auditStore, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler, sessionMgr))

	usersHandler := systemusersfeature.NewHandler(users, auditLog, logger)
	r.Mount("/users", systemusersfeature.Routes(usersHandler, sessionMgr))

	return r, nil
}

// newEngine builds the workflow engine from the configured relation and
// delete policies. Reviewer notes and free-text details are reduced to
// plain text before they reach storage.
func newEngine(appCfg AppConfig, logger *zap.Logger) (*workflow.Engine, error) {
	mode, ok := workflow.ParseRelationMode(appCfg.RelationMode)
	if !ok {
		mode = workflow.RelationStrict
	}
	deletes, err := deletepolicy.Compile(appCfg.DeletePolicy, logger)
	if err != nil {
		logger.Error("delete policy compile failed", zap.Error(err))
		return nil, err
	}
	logger.Info("workflow policies",
		zap.String("relation_mode", string(mode)),
		zap.Bool("disallow_same_level", appCfg.RelationDisallowSameLevel),
		zap.String("delete_policy", deletes.Expr()),
		zap.Int("expiring_window_days", appCfg.ExpiringWindowDays))

	return workflow.New(
		workflow.WithRelationPolicy(workflow.RelationPolicy{
			Mode:              mode,
			DisallowSameLevel: appCfg.RelationDisallowSameLevel,
		}),
		workflow.WithDeletePolicy(deletes),
		workflow.WithSanitizer(htmlsanitize.PlainText),
		workflow.WithExpiringWindow(time.Duration(appCfg.ExpiringWindowDays)*24*time.Hour),
	), nil
}
