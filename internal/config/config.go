package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
	FeedMemory   = "memory"
)

type Config struct {
	DBDSN                string
	TelegramToken        string
	TutorTelegramID      int64
	Environment          string
	TutorTimezone        *time.Location
	FeedBackend          string
	RedisAddr            string
	HTTPAddr             string
	CancelCutoff         time.Duration
	InboxRefreshInterval time.Duration
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DBDSN:         getenv("DB_DSN"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		Environment:   env("ENV", "development"),
		FeedBackend:   env("FEED_BACKEND", FeedPostgres),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if raw := getenv("TUTOR_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("TUTOR_TELEGRAM_ID must be a positive integer, got %q", raw)
		}
		cfg.TutorTelegramID = id
	}

	loc, err := time.LoadLocation(env("TUTOR_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("TUTOR_TIMEZONE: %w", err)
	}
	cfg.TutorTimezone = loc

	switch cfg.FeedBackend {
	case FeedPostgres, FeedRedis, FeedMemory:
	default:
		return nil, fmt.Errorf("FEED_BACKEND must be one of postgres, redis, memory, got %q", cfg.FeedBackend)
	}

	if cfg.CancelCutoff, err = time.ParseDuration(env("CANCEL_CUTOFF", "0s")); err != nil {
		return nil, fmt.Errorf("CANCEL_CUTOFF: %w", err)
	}
	if cfg.CancelCutoff < 0 {
		return nil, fmt.Errorf("CANCEL_CUTOFF must not be negative")
	}

	if cfg.InboxRefreshInterval, err = time.ParseDuration(env("INBOX_REFRESH_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("INBOX_REFRESH_INTERVAL: %w", err)
	}
	if cfg.InboxRefreshInterval <= 0 {
		return nil, fmt.Errorf("INBOX_REFRESH_INTERVAL must be positive")
	}

	return cfg, nil
}

// BotEnabled reports whether a Telegram token was configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
