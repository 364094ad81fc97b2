package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}

	if cfg.Backend != "postgres" {
		t.Errorf("Backend = %q, want postgres", cfg.Backend)
	}

	if cfg.TokenTTL() != 15*time.Minute {
		t.Errorf("TokenTTL = %s, want 15m", cfg.TokenTTL())
	}

	if cfg.AuthRateLimit != 10 || cfg.AuthRateWindowSeconds != 60 {
		t.Errorf("rate limit defaults = %d/%ds", cfg.AuthRateLimit, cfg.AuthRateWindowSeconds)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BACKEND", "memory")
	t.Setenv("TOKEN_TTL_MINUTES", "5")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	if cfg.Port != 9999 {
		t.Errorf("Port = %d", cfg.Port)
	}

	if cfg.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Backend)
	}

	if cfg.TokenTTL() != 5*time.Minute {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL())
	}

	if cfg.DBURL != "postgres://u:p@db:5432/x" {
		t.Errorf("DBURL = %q", cfg.DBURL)
	}

	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}

	if !cfg.TracingEnabled {
		t.Error("TracingEnabled = false")
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Port)
	}
}

func TestBuildDBURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "wishesdb")

	want := "postgres://svc:pw@db.internal:5433/wishesdb?sslmode=disable"

	if got := buildDBURL(); got != want {
		t.Errorf("buildDBURL() = %q, want %q", got, want)
	}
}
