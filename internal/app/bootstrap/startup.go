// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/kerjasama/internal/app/store/users"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	sctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	return ensureAdmin(sctx, deps, appCfg.AdminUsername, appCfg.AdminPassword, logger)
}

// ensureAdmin creates a LEMBAGA_KERJA_SAMA account when the users
// collection is empty, so a fresh install has someone who can create the
// other accounts. It never touches an existing user.
func ensureAdmin(ctx context.Context, deps DBDeps, username, password string, logger *zap.Logger) error {
	if password == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	n, err := users.Count(ctx)
	if err != nil {
		logger.Error("count users failed", zap.Error(err))
		return err
	}
	if n > 0 {
		logger.Debug("users exist; admin seeding skipped", zap.Int64("users", n))
		return nil
	}

	u, err := users.Create(ctx, models.User{
		Username: username,
		FullName: "Lembaga Kerja Sama",
		Role:     models.RoleLembagaKerjaSama,
	}, password)
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		// Another instance seeded it first.
		return nil
	}
	if err != nil {
		logger.Error("seed admin failed", zap.String("username", username), zap.Error(err))
		return err
	}
	logger.Info("seeded admin account", zap.String("username", u.Username), zap.String("user_id", u.ID.Hex()))
	return nil
}
