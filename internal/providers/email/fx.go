package email

import (
	"github.com/crowngraphics/portal/internal/config"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) intakedomain.Notifier {
	return NewOrderNotifier(ConfigFrom(cfg), log)
}
