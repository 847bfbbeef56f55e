// Package config loads runtime settings from the environment (and optional
// command-line flags) through viper.
package config

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the glucose log server.
type Config struct {
	AppPort           string
	SecretKey         string // signs the session cookie; the default is for local use only
	DatabaseDriver    string // "sqlite" or "postgres"
	DatabaseDSN       string
	SessionExpiration time.Duration
	CookieSecure      bool
	RabbitMQURL       string // empty disables event publishing
	DashboardLimit    int
}

// SetDefaults registers the development defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("SECRET_KEY", "dev-secret-key")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "glucolog.db?_foreign_keys=on")
	v.SetDefault("SESSION_EXPIRATION", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("DASHBOARD_LIMIT", 30)
}

// BindFlags exposes the most commonly overridden keys as flags on fs.
// Flag values take precedence over the environment once parsed.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("port", ":8080", "address to listen on")
	fs.String("database-driver", "sqlite", "database driver (sqlite or postgres)")
	fs.String("database-dsn", "glucolog.db?_foreign_keys=on", "database connection string")

	bindings := map[string]string{
		"APP_PORT":        "port",
		"DATABASE_DRIVER": "database-driver",
		"DATABASE_DSN":    "database-dsn",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every key from v, which must already carry defaults.
func Load(v *viper.Viper) *Config {
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		SecretKey:         v.GetString("SECRET_KEY"),
		DatabaseDriver:    v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		SessionExpiration: v.GetDuration("SESSION_EXPIRATION"),
		CookieSecure:      v.GetBool("COOKIE_SECURE"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		DashboardLimit:    v.GetInt("DASHBOARD_LIMIT"),
	}
	if cfg.SessionExpiration <= 0 {
		cfg.SessionExpiration = 24 * time.Hour
	}
	if cfg.DashboardLimit <= 0 {
		cfg.DashboardLimit = 30
	}
	return cfg
}
