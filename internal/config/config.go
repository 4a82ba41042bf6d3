package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type AuthConfig struct {
	JWTSecret     string
	TokenLifetime time.Duration
}

type OrderConfig struct {
	// How long a created order may hold its inventory reservation
	// before the sweeper cancels it.
	ReservationTTL time.Duration
	SweepInterval  time.Duration
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Auth     AuthConfig
	Order    OrderConfig
}

func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	for name, val := range map[string]string{
		"DB_HOST":     cfg.Postgres.Host,
		"DB_USER":     cfg.Postgres.User,
		"DB_PASSWORD": cfg.Postgres.Password,
		"DB_NAME":     cfg.Postgres.DBName,
	} {
		if val == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
	}

	cfg.Auth.JWTSecret = os.Getenv("API_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("API_SECRET is required")
	}
	tokenHours, err := strconv.Atoi(getEnv("TOKEN_HOUR_LIFESPAN", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_HOUR_LIFESPAN: %w", err)
	}
	cfg.Auth.TokenLifetime = time.Duration(tokenHours) * time.Hour

	reserveMinutes, err := strconv.Atoi(getEnv("ORDER_RESERVATION_TTL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_RESERVATION_TTL_MINUTES: %w", err)
	}
	cfg.Order.ReservationTTL = time.Duration(reserveMinutes) * time.Minute

	sweepSeconds, err := strconv.Atoi(getEnv("ORDER_SWEEP_INTERVAL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_SWEEP_INTERVAL_SECONDS: %w", err)
	}
	cfg.Order.SweepInterval = time.Duration(sweepSeconds) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
