package server

import (
	"net/http"
	"time"

	"github.com/crowngraphics/portal/internal/authctx"
	obscontext "github.com/crowngraphics/portal/internal/observability/context"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const contextUserIDKey = "user_id"

// CORS allows the public website to post orders and quotes.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// WebAuthRequired resolves the session cookie into a request identity.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		identity, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		ctx := authctx.WithIdentity(c.Request.Context(), identity)
		ctx = obscontext.WithActor(ctx, "user", identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, identity.UserID.String())
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authctx.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), identity, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
