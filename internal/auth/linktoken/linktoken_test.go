package linktoken

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	issuer := New(config.Config{AuthJWTSecret: "s3cret"}, clk)

	token, err := issuer.Issue(snowflake.ID(77), "ORDER-1")
	require.NoError(t, err)

	link, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(77), link.JobID)
	assert.Equal(t, "ORDER-1", link.OrderID)
}

func TestVerifyRejectsForeignSecretAndExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))
	issuer := New(config.Config{AuthJWTSecret: "s3cret"}, clk)
	other := New(config.Config{AuthJWTSecret: "different"}, clk)

	token, err := other.Issue(snowflake.ID(77), "ORDER-1")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = issuer.Issue(snowflake.ID(77), "ORDER-1")
	require.NoError(t, err)
	clk.Advance(defaultTTL + time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresTarget(t *testing.T) {
	issuer := New(config.Config{AuthJWTSecret: "s3cret"}, clock.SystemClock{})
	_, err := issuer.Issue(0, "ORDER-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Issue(snowflake.ID(1), " ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
