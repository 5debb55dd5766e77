package bootstrap

import (
	"context"

	"github.com/openplans/planbox/internal/config"
	"github.com/openplans/planbox/internal/modules/service"
	"go.uber.org/zap"
)

// EnsureAdminUserExists creates the configured admin account on startup.
// On first creation the plaintext bearer token is logged once; it cannot
// be recovered later, only reissued.
func EnsureAdminUserExists(ctx context.Context, users service.UserService, cfg *config.Config, log *zap.Logger) error {
	if cfg.Admin.Username == "" {
		return nil
	}

	u, token, err := users.EnsureUser(ctx, cfg.Admin.Username, cfg.Admin.Name)
	if err != nil {
		return err
	}
	if token != "" {
		log.Sugar().Infow("admin user created", "user", u.ID, "token", token)
		return nil
	}
	log.Sugar().Infow("admin user exists", "user", u.ID)
	return nil
}
