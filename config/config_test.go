package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STATE_PATH", "/tmp/state")
	t.Setenv("DATASTORE_DRIVER", "")
	t.Setenv("DATASTORE_DSN", "")
	t.Setenv("HEIDI_BASE_URL", "")

	cfg := Load()
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.DataStoreDriver != "sqlite" {
		t.Fatalf("unexpected driver %q", cfg.DataStoreDriver)
	}
	if want := filepath.Join("/tmp/state", "scribe-bridge.db"); cfg.DataStoreDSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DataStoreDSN)
	}
	if cfg.AskAITimeout != 60*time.Second {
		t.Fatalf("unexpected ask timeout %s", cfg.AskAITimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HEIDI_BASE_URL", "http://localhost:9000/api/")
	t.Setenv("DATASTORE_DRIVER", "postgres")
	t.Setenv("DATASTORE_DSN", "")
	t.Setenv("POSTGRES_DSN", "postgres://bridge@db/bridge")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ASK_AI_TIMEOUT", "not-a-duration")
	t.Setenv("SEED_DEMO_DATA", "no")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.BaseURL != "http://localhost:9000/api" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.BaseURL)
	}
	if cfg.DataStoreDSN != "postgres://bridge@db/bridge" {
		t.Fatalf("expected POSTGRES_DSN fallback, got %q", cfg.DataStoreDSN)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigins)
	}
	if cfg.AskAITimeout != 60*time.Second {
		t.Fatalf("invalid duration should fall back, got %s", cfg.AskAITimeout)
	}
	if cfg.SeedDemoData {
		t.Fatal("SEED_DEMO_DATA=no should disable seeding")
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("unexpected redis db %d", cfg.RedisDB)
	}
}

func TestCredentialStatus(t *testing.T) {
	cfg := &Config{APIKey: "key"}
	status := cfg.CredentialStatus()
	if !status["HEIDI_API_KEY"] || status["HEIDI_EMAIL"] || status["HEIDI_USER_ID"] {
		t.Fatalf("unexpected status %v", status)
	}
}
