package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crowngraphics/portal/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SMTP_USER", "orders@example.com")
	t.Setenv("FROM_EMAIL", "")
	t.Setenv("ORDER_NOTIFY_EMAIL", "shop@example.com")
	t.Setenv("INTERNAL_NOTIFY_EMAIL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.UseTLS)
	assert.Equal(t, "orders@example.com", cfg.SMTP.From)
	assert.Equal(t, "shop@example.com", cfg.SMTP.InternalNotify)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
}

func TestPricingTableHolder_DefaultWithoutFile(t *testing.T) {
	holder, err := NewPricingTableHolder(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultTable(), holder.Get())
}

func TestPricingTableHolder_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	body := `
pricing:
  products:
    flyers:
      "8.5x11":
        base: 20
        step: 100
        increment: 10
  modifiers:
    paper:
      standard: 0
    color:
      full_color: 0
    sides:
      single: 0
      double: 0.2
    turnaround:
      standard: 0
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	holder, err := NewPricingTableHolder(Config{PricingConfigFile: path}, zap.NewNop())
	require.NoError(t, err)

	table := holder.Get()
	assert.Equal(t, pricing.Rate{Base: 20, Step: 100, Increment: 10}, table.Products["flyers"]["8.5x11"])
	assert.Equal(t, 0.2, table.Modifiers["sides"]["double"])
}

func TestPricingTableHolder_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pricing:\n  products: {}\n"), 0o600))

	_, err := NewPricingTableHolder(Config{PricingConfigFile: path}, zap.NewNop())
	assert.Error(t, err)
}
