// Package seed bootstraps the first admin account.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/crowngraphics/portal/internal/config"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	"go.uber.org/zap"
)

// EnsureAdmin creates the ADMIN_USER account when it does not exist yet.
// Existing accounts keep their password.
func EnsureAdmin(ctx context.Context, users userdomain.Service, cfg config.Config, log *zap.Logger) error {
	if users == nil {
		return errors.New("seed user service is required")
	}
	username := strings.TrimSpace(cfg.AdminUser)
	if username == "" {
		return nil
	}

	created, err := users.EnsureAdmin(ctx, username, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin account created", zap.String("username", username))
		if cfg.IsProduction() && cfg.AdminPassword == "admin123" {
			log.Warn("admin account uses the default password; reset it")
		}
	}
	return nil
}
