package storage

import (
	"context"
	"fmt"

	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
	fx.Provide(func(s Store) intakedomain.FileStore { return s }),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) (Store, error) {
	log = log.Named("providers.storage")
	switch cfg.Uploads.Backend {
	case config.UploadBackendGCS:
		store, err := NewGCS(context.Background(), cfg.Uploads.Bucket, cfg.Uploads.Prefix, cfg.Uploads.GCSEmulator, clk)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return store.Close() },
		})
		log.Info("upload backend ready", zap.String("backend", "gcs"), zap.String("bucket", cfg.Uploads.Bucket))
		return store, nil
	case config.UploadBackendLocal, "":
		store, err := NewLocal(cfg.Uploads.Dir, clk)
		if err != nil {
			return nil, err
		}
		log.Info("upload backend ready", zap.String("backend", "local"), zap.String("dir", cfg.Uploads.Dir))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.Uploads.Backend)
	}
}
