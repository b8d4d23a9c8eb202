package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Provider struct {
		BaseURL string
	}
	Notification struct {
		WebhookURL string
	}
}

// Load reads configuration from the environment, optionally preloading a
// .env file. Connection variables are required; everything else defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")

	required := map[string]*string{
		"DB_HOST":     &cfg.Postgres.Host,
		"DB_PORT":     &cfg.Postgres.Port,
		"DB_USER":     &cfg.Postgres.User,
		"DB_PASSWORD": &cfg.Postgres.Password,
		"DB_NAME":     &cfg.Postgres.DBName,
	}
	for name, target := range required {
		value := os.Getenv(name)
		if value == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
		*target = value
	}

	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	cfg.Provider.BaseURL = getEnv("PAYMENT_PROVIDER_URL", "")
	cfg.Notification.WebhookURL = getEnv("NOTIFICATION_WEBHOOK_URL", "")

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
