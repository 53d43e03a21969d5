package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorize_StaffAndAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	staff := authctx.Identity{UserID: snowflake.ID(10), Username: "sam", Role: authctx.RoleStaff}
	admin := authctx.Identity{UserID: snowflake.ID(11), Username: "boss", Role: authctx.RoleAdmin}

	assert.NoError(t, svc.Authorize(ctx, staff, ObjectJob, ActionJobUpdate))
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectJob, ActionJobDelete), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectJobLog, ActionJobLogView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectUser, ActionUserManage), ErrForbidden)

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectJob, ActionJobDelete))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectJob, ActionJobView))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectUser, ActionUserManage))
}

func TestAuthorize_RoleChangeTakesEffect(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	identity := authctx.Identity{UserID: snowflake.ID(12), Username: "kim", Role: authctx.RoleAdmin}
	require.NoError(t, svc.Authorize(ctx, identity, ObjectUser, ActionUserView))

	identity.Role = authctx.RoleStaff
	assert.ErrorIs(t, svc.Authorize(ctx, identity, ObjectUser, ActionUserView), ErrForbidden)
}

func TestAuthorize_InvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, authctx.Identity{}, ObjectJob, ActionJobView), ErrInvalidActor)
	identity := authctx.Identity{UserID: 1, Role: authctx.RoleStaff}
	assert.ErrorIs(t, svc.Authorize(ctx, identity, " ", ActionJobView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, identity, ObjectJob, ""), ErrInvalidAction)
}

func TestNewEnforcer_SeedIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	_, err = NewEnforcer(conn)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 10)
}
