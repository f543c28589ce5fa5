package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the server.
type Config struct {
	DatabaseURL       string
	ListenAddr        string
	TelegramToken     string
	OwnerAcceptEcho   bool
	HeartbeatInterval time.Duration
	ReconcileInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A local .env file, when present, is merged in first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ListenAddr:        strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		OwnerAcceptEcho:   parseBool(os.Getenv("OWNER_ACCEPT_ECHO"), true),
		HeartbeatInterval: parseDuration(os.Getenv("HEARTBEAT_INTERVAL"), 30*time.Second),
		ReconcileInterval: parseDuration(os.Getenv("RECONCILE_INTERVAL"), time.Minute),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskmarket.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	return cfg, nil
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
