package infra

import (
	"os"
	"testing"
	"time"
)

// unsetEnv removes keys for the duration of the test. cleanenv treats a set
// but empty variable as an explicit value, so t.Setenv(key, "") is not enough.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FAL_KEY", "test-key")
	unsetEnv(t, "PORT", "OUTPUT_DIR", "CORS_ORIGINS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.OutputDir != "outputs" {
		t.Fatalf("OutputDir = %q, want outputs", cfg.OutputDir)
	}
	if cfg.Fal.MaxAttempts != 5 {
		t.Fatalf("Fal.MaxAttempts = %d, want 5", cfg.Fal.MaxAttempts)
	}
	if cfg.Fal.RetryMin != 2*time.Second || cfg.Fal.RetryMax != 30*time.Second {
		t.Fatalf("retry window = %s..%s, want 2s..30s", cfg.Fal.RetryMin, cfg.Fal.RetryMax)
	}
	if cfg.DownloadTimeout != 120*time.Second {
		t.Fatalf("DownloadTimeout = %s, want 120s", cfg.DownloadTimeout)
	}
	if cfg.DefaultVideoModel != "grok" {
		t.Fatalf("DefaultVideoModel = %q, want grok", cfg.DefaultVideoModel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %#v, want [*]", cfg.CORSOrigins)
	}
}

func TestLoadConfigRequiresFalKey(t *testing.T) {
	unsetEnv(t, "FAL_KEY", "FAL_API_KEY")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when FAL_KEY is missing")
	}
}

func TestLoadConfigAcceptsAlternateKeyName(t *testing.T) {
	unsetEnv(t, "FAL_KEY")
	t.Setenv("FAL_API_KEY", "alt-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Fal.Key != "alt-key" {
		t.Fatalf("Fal.Key = %q, want alt-key", cfg.Fal.Key)
	}
}

func TestLoadConfigRejectsInvertedRetryWindow(t *testing.T) {
	t.Setenv("FAL_KEY", "test-key")
	t.Setenv("FAL_RETRY_MIN", "10s")
	t.Setenv("FAL_RETRY_MAX", "1s")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for inverted retry window")
	}
}

func TestLoadConfigNormalizesOrigins(t *testing.T) {
	t.Setenv("FAL_KEY", "test-key")
	t.Setenv("CORS_ORIGINS", " https://a.example.com, ,https://b.example.com,https://a.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSOrigins) != len(expected) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSOrigins[i] != origin {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], origin)
		}
	}
}
