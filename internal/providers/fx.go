package providers

import (
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"github.com/crowngraphics/portal/internal/providers/email"
	"github.com/crowngraphics/portal/internal/providers/pdf"
	"github.com/crowngraphics/portal/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	storage.Module,
	fx.Provide(
		fx.Annotate(pdf.New, fx.As(new(intakedomain.Renderer))),
	),
)
