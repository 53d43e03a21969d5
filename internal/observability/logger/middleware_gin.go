package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	obscontext "github.com/crowngraphics/portal/internal/observability/context"
)

const headerRequestID = "X-Request-Id"

// Routes the public website posts to. A rejected customer form is routine
// there and logs at debug instead of info.
var publicFormRoutes = map[string]struct{}{
	"/api/orders":                {},
	"/api/orders/changes/:token": {},
	"/api/pricing/quote":         {},
}

// Polled by the load balancer and Prometheus; kept out of the info stream.
var pollRoutes = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// MiddlewareConfig controls request logging.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps the last handler error to its API error type
	// and code.
	ErrorClassifier func(err error) (string, string)
	// Logger defaults to the global zap logger.
	Logger *zap.Logger
}

// GinMiddleware writes one http_request entry per request, tagged with the
// request id and the order or job the request touched.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := append(requestFields(c, route, status, time.Since(start)), subjectFields(c, route)...)

		var errorType string
		if lastErr := c.Errors.Last(); lastErr != nil {
			var errorCode string
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(lastErr.Err)
			}
			fields = append(fields, zap.String("error_type", errorType), zap.String("error_code", errorCode))
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		base := cfg.Logger
		if base == nil {
			base = zap.L()
		}
		log := WithContext(c.Request.Context(), base)
		if ce := log.Check(requestLevel(route, status, errorType), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestFields(c *gin.Context, route string, status int, took time.Duration) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Int64("duration_ms", took.Milliseconds()),
		zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
		zap.Int("bytes_out", max(c.Writer.Size(), 0)),
	}
}

// subjectFields names the order or job a request acted on so a customer
// complaint can be traced from its order id to the request that stored it.
func subjectFields(c *gin.Context, route string) []zap.Field {
	var fields []zap.Field
	if orderID := strings.TrimSpace(c.GetString("order_id")); orderID != "" {
		fields = append(fields, zap.String("order_id", orderID))
	}
	if strings.HasPrefix(route, "/admin/jobs/:id") {
		fields = append(fields, zap.String("job_id", c.Param("id")))
	}
	if userID := c.GetString("user_id"); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	return fields
}

func requestLevel(route string, status int, errorType string) zapcore.Level {
	if _, ok := pollRoutes[route]; ok {
		return zap.DebugLevel
	}
	switch {
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case status >= http.StatusBadRequest && errorType == "validation_error":
		if _, ok := publicFormRoutes[route]; ok {
			return zap.DebugLevel
		}
	}
	return zap.InfoLevel
}

// ensureRequestID keeps an id the caller or an upstream proxy already
// assigned and echoes it back so the website can quote it to the shop.
func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetString("request_id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("request_id", requestID)
	c.Header(headerRequestID, requestID)
	return requestID
}
