package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.Store.Driver != StoreMemory || cfg.Store.SessionTTL != 6*time.Hour || cfg.Store.MaxSessions != 10000 {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Engagement.MinTurns != 8 || cfg.Engagement.MaxTurns != 20 {
		t.Fatalf("unexpected termination defaults: %+v", cfg.Engagement)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.GenerationEnabled() {
		t.Fatal("generation must be disabled without GEMINI_API_KEY")
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "  ")

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("LLM_TIMEOUT", "3")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("MOCK_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Fatalf("driver = %q", cfg.Store.Driver)
	}
	if cfg.LLM.Timeout != 3*time.Second || cfg.Store.SessionTTL != 30*time.Minute {
		t.Fatalf("durations not parsed: %v %v", cfg.LLM.Timeout, cfg.Store.SessionTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if cfg.GenerationEnabled() {
		t.Fatal("mock mode must disable generation")
	}
}

func TestValidateRejectsBadDriverAndTurns(t *testing.T) {
	t.Setenv("API_KEY", "k")

	t.Setenv("STORE_DRIVER", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TERMINATION_MIN_TURNS", "30")
	if _, err := Load(); err == nil {
		t.Fatal("expected min > max to fail")
	}
}

func TestValidateRequiresBoundedTimeouts(t *testing.T) {
	for _, key := range []string{"LLM_TIMEOUT", "LLM_REPLY_TIMEOUT", "REPORT_TIMEOUT"} {
		for _, value := range []string{"0", "0s", "-2s"} {
			t.Run(key+"="+value, func(t *testing.T) {
				t.Setenv("API_KEY", "k")
				t.Setenv(key, value)
				if _, err := Load(); err == nil {
					t.Fatalf("expected %s=%s to fail", key, value)
				}
			})
		}
	}
}
