package email

import (
	"errors"

	"github.com/crowngraphics/portal/internal/config"
)

var (
	ErrHostNotConfigured     = errors.New("SMTP_HOST is not configured")
	ErrFromNotConfigured     = errors.New("FROM_EMAIL (or SMTP_USER) is not configured")
	ErrInternalNotConfigured = errors.New("INTERNAL_NOTIFY_EMAIL (or ORDER_NOTIFY_EMAIL) is not configured")
)

type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	UseTLS         bool
	UseSSL         bool
	From           string
	InternalNotify string
	BCC            string
}

func ConfigFrom(cfg config.Config) Config {
	// Defaults are already handled in internal/config
	return Config{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.SMTP.User,
		Password:       cfg.SMTP.Password,
		UseTLS:         cfg.SMTP.UseTLS,
		UseSSL:         cfg.SMTP.UseSSL,
		From:           cfg.SMTP.From,
		InternalNotify: cfg.SMTP.InternalNotify,
		BCC:            cfg.SMTP.BCC,
	}
}

// Validate reports the first missing setting needed to send order mail.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrHostNotConfigured
	}
	if c.From == "" {
		return ErrFromNotConfigured
	}
	if c.InternalNotify == "" {
		return ErrInternalNotConfigured
	}
	return nil
}
