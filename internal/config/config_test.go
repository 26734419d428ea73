package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_SECRET", strings.Repeat("a", 32))
	t.Setenv("DB_ENCRYPTION_KEY", strings.Repeat("b", 32))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("SESSION_TIMEOUT_HOURS", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DBPath != "./data/smartinbox.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SessionTimeoutHours != 8 {
		t.Errorf("SessionTimeoutHours = %d, want 8", cfg.SessionTimeoutHours)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("APP_SECRET", "")
	t.Setenv("DB_ENCRYPTION_KEY", strings.Repeat("b", 32))
	if _, err := Load(); err == nil {
		t.Error("Load must fail without APP_SECRET")
	}

	t.Setenv("APP_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Error("Load must fail with a short APP_SECRET")
	}

	t.Setenv("APP_SECRET", strings.Repeat("a", 32))
	t.Setenv("DB_ENCRYPTION_KEY", "short")
	if _, err := Load(); err == nil {
		t.Error("Load must fail with a short DB_ENCRYPTION_KEY")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("SESSION_TIMEOUT_HOURS", "48")
	t.Setenv("IDENTITY_WEBHOOK_SECRET", "whsec_abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SessionTimeoutHours != 48 {
		t.Errorf("SessionTimeoutHours = %d, want 48", cfg.SessionTimeoutHours)
	}
	if cfg.WebhookSecret != "whsec_abc" {
		t.Errorf("WebhookSecret = %q", cfg.WebhookSecret)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want the default 7", got)
	}
}
