package logger

import (
	"context"
	"testing"

	obscontext "github.com/crowngraphics/portal/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM jobs":                        "SELECT",
		"  insert into job_logs (id) values (1)":    "INSERT",
		"WITH x AS (SELECT 1) UPDATE jobs SET a=1":  "SELECT",
		"DELETE FROM job_line_items WHERE job_id=1": "DELETE",
		"":                                          "UNKNOWN",
		"PRAGMA foreign_keys = ON":                  "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, obscontext.ActorUser, "alice")

	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "user", fields["actor_type"])
		assert.Equal(t, "alice", fields["actor_id"])
		assert.Equal(t, "", fields["trace_id"])
	}
}
