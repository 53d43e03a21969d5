package migration

import (
	"context"

	"github.com/crowngraphics/portal/internal/config"
	"github.com/crowngraphics/portal/internal/seed"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, users userdomain.Service, log *zap.Logger) error {
		if err := RunMigrations(conn); err != nil {
			return err
		}
		return seed.EnsureAdmin(context.Background(), users, cfg, log)
	}),
)
