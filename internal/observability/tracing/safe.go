package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var blockedAttributeFragments = []string{
	"password",
	"token",
	"secret",
	"email",
	"phone",
	"cookie",
	"authorization",
}

// SafeAttributes drops attributes whose keys look like they carry customer
// contact details or credentials.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(string(attr.Key))
		if blocked(key) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError replaces the error text with a bounded message so span events
// never echo request payloads.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(err.Error())
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if blocked(strings.ToLower(msg)) {
		msg = "redacted"
	}
	return errors.New(msg)
}

// ExtractContext reads propagated trace headers into ctx.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func blocked(value string) bool {
	for _, fragment := range blockedAttributeFragments {
		if strings.Contains(value, fragment) {
			return true
		}
	}
	return false
}
