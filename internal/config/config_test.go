package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("OWNER_ACCEPT_ECHO", "")
	t.Setenv("HEARTBEAT_INTERVAL", "")
	t.Setenv("RECONCILE_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "taskmarket.db" {
		t.Errorf("DatabaseURL = %q, want taskmarket.db", cfg.DatabaseURL)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if !cfg.OwnerAcceptEcho {
		t.Error("OwnerAcceptEcho should default to true")
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "data/market.db")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("OWNER_ACCEPT_ECHO", "off")
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("RECONCILE_INTERVAL", "garbage")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "data/market.db" || cfg.ListenAddr != ":9090" {
		t.Errorf("cfg = %+v, want overridden db and addr", cfg)
	}
	if cfg.OwnerAcceptEcho {
		t.Error("OwnerAcceptEcho = true, want off")
	}
	if cfg.HeartbeatInterval != 10*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 10s", cfg.HeartbeatInterval)
	}
	if cfg.ReconcileInterval != time.Minute {
		t.Errorf("ReconcileInterval = %v, want fallback 1m for garbage input", cfg.ReconcileInterval)
	}
}
