// Package config provides environment-based configuration for storecore.
//
// Configuration is loaded from environment variables using Viper, with sensible
// defaults for development. Secrets (session signing key, payment HMAC secret,
// SMTP credentials) are injected into components at construction and never read
// from ambient global state.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: storecore.db
//   - SKIP_AUTO_MIGRATE: Skip automatic database migrations. Default: false
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//   - BASE_URL: Public base URL used in password-reset links
//   - SESSION_SECRET: HS256 signing key for session tokens
//   - SESSION_TTL_HOURS: Session token lifetime. Default: 24
//   - PAYMENT_SECRET: HMAC secret shared with the payment gateway
//   - REDIS_ADDR: Optional Redis address for the resend cool-down store
//   - SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_FROM: Mail delivery
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DBType          string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN             string `mapstructure:"DSN"`
	SkipAutoMigrate bool   `mapstructure:"SKIP_AUTO_MIGRATE"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	Port            int    `mapstructure:"PORT"`
	BaseURL         string `mapstructure:"BASE_URL"`

	SessionSecret   string `mapstructure:"SESSION_SECRET"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`

	PaymentSecret string `mapstructure:"PAYMENT_SECRET"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	SMTP SMTPConfig `mapstructure:",squash"`
}

type SMTPConfig struct {
	Host string `mapstructure:"SMTP_HOST"`
	Port int    `mapstructure:"SMTP_PORT"`
	User string `mapstructure:"SMTP_USER"`
	Pass string `mapstructure:"SMTP_PASS"`
	From string `mapstructure:"SMTP_FROM"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "storecore.db")
	viper.SetDefault("SKIP_AUTO_MIGRATE", false)
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("SMTP_PORT", 587)

	// AutomaticEnv only surfaces keys Viper already knows about, so every
	// secret and optional knob still needs a default.
	viper.SetDefault("SESSION_SECRET", "")
	viper.SetDefault("PAYMENT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASS", "")
	viper.SetDefault("SMTP_FROM", "")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
