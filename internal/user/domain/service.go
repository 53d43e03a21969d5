package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id snowflake.ID) (User, error)
	ResetPassword(ctx context.Context, id snowflake.ID, password string) error
	// Delete refuses to remove the caller's own account or the last admin.
	Delete(ctx context.Context, id snowflake.ID) error
	// VerifyCredentials returns the user when the password matches.
	VerifyCredentials(ctx context.Context, username, password string) (User, error)
	// EnsureAdmin creates an admin account unless the username exists.
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfDelete         = errors.New("cannot_delete_self")
	ErrLastAdmin          = errors.New("cannot_delete_last_admin")
)
