package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAPBOX_TOKEN", "")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.alias")
	t.Setenv("GEOCODER_PRIMARY_TIMEOUT", "3")
	t.Setenv("GEOCODER_SECONDARY_TIMEOUT", "12s")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, _ := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.MapboxToken != "pk.alias" {
		t.Fatalf("expected alias token, got %q", cfg.MapboxToken)
	}
	if cfg.PrimaryTimeout != 3*time.Second || cfg.SecondaryTimeout != 12*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.PrimaryTimeout, cfg.SecondaryTimeout)
	}
	if cfg.DBAutoMigrate {
		t.Fatalf("expected auto migrate disabled")
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("expected fallback redis db 0, got %d", cfg.RedisDB)
	}
}
