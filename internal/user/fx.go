package user

import (
	"github.com/crowngraphics/portal/internal/user/repository"
	"github.com/crowngraphics/portal/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
