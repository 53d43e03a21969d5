package authorization

import (
	"context"
	"errors"

	"github.com/crowngraphics/portal/internal/authctx"
)

// Service decides whether the signed-in staff member may perform an action.
type Service interface {
	Authorize(ctx context.Context, identity authctx.Identity, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
