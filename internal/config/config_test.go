package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/adtrack")
	t.Setenv("API_KEYS", "")
	t.Setenv("PORT", "")
	t.Setenv("DEDUPE_TTL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("default port: got %q", cfg.Port)
	}
	if cfg.DedupeTTL != 30*time.Minute {
		t.Errorf("default dedupe ttl: got %s", cfg.DedupeTTL)
	}
	if cfg.APIKeys["tenant-key-123"] != "tenant1" {
		t.Error("dev fallback API key missing")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("redis should be disabled by default, got %q", cfg.RedisAddr)
	}
}

func TestLoad_ParsesAPIKeys(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/adtrack")
	t.Setenv("API_KEYS", "pub1:key-a, pub2:key-b")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKeys["key-a"] != "pub1" || cfg.APIKeys["key-b"] != "pub2" {
		t.Errorf("unexpected key map: %v", cfg.APIKeys)
	}
}

func TestLoad_RejectsMalformedAPIKeys(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/adtrack")
	t.Setenv("API_KEYS", "no-colon-here")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed API_KEYS")
	}
}

func TestLoad_RejectsBadDedupeTTL(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/adtrack")
	t.Setenv("API_KEYS", "")
	t.Setenv("DEDUPE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DEDUPE_TTL")
	}
}
