// Package authctx carries the authenticated staff identity for one request.
package authctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type identityKey struct{}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Identity is the signed-in user acting on a request.
type Identity struct {
	UserID   snowflake.ID
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the identity, if the request is authenticated.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == 0 {
		return Identity{}, false
	}
	return identity, true
}

// ActorName is the username recorded on audit entries, or "" when anonymous.
func ActorName(ctx context.Context) string {
	identity, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return identity.Username
}
