package auth

import (
	"github.com/crowngraphics/portal/internal/auth/linktoken"
	"github.com/crowngraphics/portal/internal/auth/repository"
	"github.com/crowngraphics/portal/internal/auth/service"
	"github.com/crowngraphics/portal/internal/auth/session"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
	fx.Provide(
		fx.Annotate(
			linktoken.New,
			fx.As(fx.Self()),
			fx.As(new(intakedomain.LinkIssuer)),
		),
	),
)
