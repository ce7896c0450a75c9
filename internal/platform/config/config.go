package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr                     string
	DatabaseURL              string
	JWTSecret                string
	TokenTTL                 time.Duration
	Environment              string
	LogLevel                 string
	SeedAdminName            string
	SeedAdminEmail           string
	SeedAdminPassword        string
	EmailFrom                string
	EmailEnabled             bool
	SMTPHost                 string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPassword             string
	SMTPUseTLS               bool
	RedisAddr                string
	RedisPassword            string
	RunMigrations            bool
	RunSeed                  bool
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	NotificationPollInterval time.Duration
	NotificationMaxAttempts  int
	NotificationBatchSize    int
	MetricsEnabled           bool
	ShutdownTimeout          time.Duration
}

var defaults = map[string]any{
	"APP_ADDR":                   ":8080",
	"APP_ENV":                    "development",
	"LOG_LEVEL":                  "info",
	"TOKEN_TTL":                  "8h",
	"SEED_ADMIN_NAME":            "System Administrator",
	"EMAIL_ENABLED":              false,
	"SMTP_HOST":                  "smtp.gmail.com",
	"SMTP_PORT":                  587,
	"SMTP_USE_TLS":               true,
	"RUN_MIGRATIONS":             true,
	"RUN_SEED":                   true,
	"MAX_BODY_BYTES":             4 << 20,
	"RATE_LIMIT_PER_MINUTE":      120,
	"NOTIFICATION_POLL_INTERVAL": "30s",
	"NOTIFICATION_MAX_ATTEMPTS":  5,
	"NOTIFICATION_BATCH_SIZE":    25,
	"METRICS_ENABLED":            true,
	"SHUTDOWN_TIMEOUT":           "15s",
}

// Load reads configuration from the process environment, an optional .env
// file, and an optional config file named by CONFIG_PATH. Environment
// variables win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("config file read failed", "path", path, "err", err)
		}
	}

	cfg := Config{
		Addr:                     v.GetString("APP_ADDR"),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		JWTSecret:                v.GetString("JWT_SECRET"),
		TokenTTL:                 v.GetDuration("TOKEN_TTL"),
		Environment:              v.GetString("APP_ENV"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		SeedAdminName:            v.GetString("SEED_ADMIN_NAME"),
		SeedAdminEmail:           v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:        v.GetString("SEED_ADMIN_PASSWORD"),
		EmailFrom:                v.GetString("EMAIL_FROM"),
		EmailEnabled:             v.GetBool("EMAIL_ENABLED"),
		SMTPHost:                 v.GetString("SMTP_HOST"),
		SMTPPort:                 v.GetInt("SMTP_PORT"),
		SMTPUser:                 v.GetString("SMTP_USER"),
		SMTPPassword:             v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:               v.GetBool("SMTP_USE_TLS"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RunMigrations:            v.GetBool("RUN_MIGRATIONS"),
		RunSeed:                  v.GetBool("RUN_SEED"),
		MaxBodyBytes:             v.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerMinute:       v.GetInt("RATE_LIMIT_PER_MINUTE"),
		NotificationPollInterval: v.GetDuration("NOTIFICATION_POLL_INTERVAL"),
		NotificationMaxAttempts:  v.GetInt("NOTIFICATION_MAX_ATTEMPTS"),
		NotificationBatchSize:    v.GetInt("NOTIFICATION_BATCH_SIZE"),
		MetricsEnabled:           v.GetBool("METRICS_ENABLED"),
		ShutdownTimeout:          v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	if cfg.EmailFrom == "" && cfg.SMTPUser != "" {
		cfg.EmailFrom = fmt.Sprintf("EMS System <%s>", cfg.SMTPUser)
	}
	return cfg
}

// SMTPConfigured reports whether outbound mail has everything it needs.
func (c Config) SMTPConfigured() bool {
	return c.EmailEnabled && c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != ""
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.NotificationMaxAttempts <= 0 {
		return fmt.Errorf("NOTIFICATION_MAX_ATTEMPTS must be positive")
	}
	if c.NotificationPollInterval <= 0 {
		return fmt.Errorf("NOTIFICATION_POLL_INTERVAL must be positive")
	}
	return nil
}
