package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPricingTableHolder),
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	PublicBaseURL    string
	AuthCookieSecure bool
	AuthJWTSecret    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	AdminUser     string
	AdminPassword string

	PricingConfigFile string

	SMTP      SMTPConfig
	Uploads   UploadConfig
	RateLimit RateLimitConfig

	CORSAllowedOrigins []string
}

type SMTPConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	UseTLS         bool
	UseSSL         bool
	From           string
	InternalNotify string
	BCC            string
}

type UploadConfig struct {
	Backend     string
	Dir         string
	Bucket      string
	Prefix      string
	GCSEmulator string
	MaxBytes    int64
}

type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	IntakeEnabled bool
	IntakeRate    float64
	IntakeBurst   int
}

const (
	UploadBackendLocal = "local"
	UploadBackendGCS   = "gcs"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	smtpUser := strings.TrimSpace(getenv("SMTP_USER", ""))

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "crown-portal"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL:    strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AuthCookieSecure: authCookieSecure,
		AuthJWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", "dev-secret-change-me")),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "sqlite")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "crown_portal"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "crown_portal.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		AdminUser:     getenv("ADMIN_USER", "admin"),
		AdminPassword: getenv("ADMIN_PASS", "admin123"),

		PricingConfigFile: strings.TrimSpace(getenv("PRICING_CONFIG_FILE", "")),

		SMTP: SMTPConfig{
			Host:           strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:           getenvInt("SMTP_PORT", 587),
			User:           smtpUser,
			Password:       getenv("SMTP_PASS", ""),
			UseTLS:         getenvBool("SMTP_USE_TLS", true),
			UseSSL:         getenvBool("SMTP_USE_SSL", false),
			From:           strings.TrimSpace(getenv("FROM_EMAIL", smtpUser)),
			InternalNotify: strings.TrimSpace(getenv("INTERNAL_NOTIFY_EMAIL", getenv("ORDER_NOTIFY_EMAIL", ""))),
			BCC:            strings.TrimSpace(getenv("BCC_EMAIL", "")),
		},
		Uploads: UploadConfig{
			Backend:     strings.ToLower(getenv("UPLOAD_BACKEND", UploadBackendLocal)),
			Dir:         getenv("ORDER_UPLOAD_DIR", "uploads/orders"),
			Bucket:      strings.TrimSpace(getenv("UPLOAD_GCS_BUCKET", "")),
			Prefix:      strings.Trim(getenv("UPLOAD_GCS_PREFIX", "orders"), "/"),
			GCSEmulator: strings.TrimSpace(getenv("STORAGE_EMULATOR_HOST", "")),
			MaxBytes:    getenvInt64("UPLOAD_MAX_BYTES", 50<<20),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			IntakeEnabled: getenvBool("INTAKE_RATE_LIMIT_ENABLED", false),
			IntakeRate:    getenvFloat("INTAKE_RATE_LIMIT_PER_SEC", 0.2),
			IntakeBurst:   getenvInt("INTAKE_RATE_LIMIT_BURST", 5),
		},
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "")),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
