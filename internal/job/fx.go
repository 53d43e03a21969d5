package job

import (
	"github.com/crowngraphics/portal/internal/job/repository"
	"github.com/crowngraphics/portal/internal/job/service"
	"go.uber.org/fx"
)

var Module = fx.Module("job.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
