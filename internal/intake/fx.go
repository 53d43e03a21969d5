package intake

import (
	"github.com/crowngraphics/portal/internal/intake/service"
	"go.uber.org/fx"
)

var Module = fx.Module("intake.service",
	fx.Provide(service.New),
)
