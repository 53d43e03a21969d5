package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/authctx"
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a session token to the identity of its user.
	Authenticate(ctx context.Context, rawToken string) (authctx.Identity, error)
}

type LoginRequest struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Session   *SessionView
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
