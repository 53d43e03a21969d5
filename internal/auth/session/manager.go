// Package session carries the staff login token between the browser and the
// portal as an HTTP-only cookie. The token itself is only a lookup key; the
// session row lives in the auth repository.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crowngraphics/portal/internal/config"
)

// DefaultCookieName is the cookie the staff dashboard authenticates with.
const DefaultCookieName = "crown_portal_session"

// Manager reads and writes the staff session cookie. The cookie is scoped
// to the whole site because the dashboard and its JSON API share one origin.
type Manager struct {
	name   string
	secure bool
	now    func() time.Time
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		name:   DefaultCookieName,
		secure: cfg.AuthCookieSecure,
		now:    time.Now,
	}
}

// ReadToken returns the raw session token, or false when the request
// carries no usable cookie.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.name)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(raw)
	return token, token != ""
}

// Set stores token until expiresAt. An expiry already in the past leaves a
// cookie without Max-Age that lasts until the browser closes; the server
// rejects the expired session on its next use.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	m.write(c, token, max(int(expiresAt.Sub(m.now()).Seconds()), 0))
}

// Clear removes the cookie on logout or when the session was revoked.
func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, "/", "", m.secure, true)
}
