package audit

import (
	"github.com/crowngraphics/portal/internal/audit/repository"
	"github.com/crowngraphics/portal/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
