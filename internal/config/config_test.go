package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xstream.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config with defaults", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: sqlite\n  dsn: ':memory:'\nmodel:\n  name: claude-sonnet-4-20250514\n  api_key: sk-test\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.Driver != "sqlite" {
			t.Fatalf("unexpected driver: %q", cfg.Database.Driver)
		}
		if cfg.Model.BaseURL != DefaultModelBaseURL {
			t.Fatalf("expected default base url, got %q", cfg.Model.BaseURL)
		}
		if cfg.Model.ThinkingBudget != DefaultThinkingBudget {
			t.Fatalf("expected default thinking budget, got %d", cfg.Model.ThinkingBudget)
		}
		if cfg.Server.ListenAddr != DefaultListenAddr {
			t.Fatalf("expected default listen addr, got %q", cfg.Server.ListenAddr)
		}
	})

	t.Run("env overrides file values", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: sqlite\n  dsn: ':memory:'\nmodel:\n  name: claude-sonnet-4-20250514\n")
		t.Setenv("XSTREAM_MODEL_API_KEY", "sk-from-env")
		t.Setenv("XSTREAM_LISTEN_ADDR", ":9000")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Model.APIKey != "sk-from-env" {
			t.Fatalf("expected env api key, got %q", cfg.Model.APIKey)
		}
		if cfg.Server.ListenAddr != ":9000" {
			t.Fatalf("expected env listen addr, got %q", cfg.Server.ListenAddr)
		}
	})

	t.Run("missing driver", func(t *testing.T) {
		path := writeConfig(t, "database:\n  dsn: ':memory:'\nmodel:\n  name: m\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "driver is required") {
			t.Fatalf("expected driver error, got %v", err)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: mysql\n  dsn: x\nmodel:\n  name: m\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "unsupported database driver") {
			t.Fatalf("expected unsupported driver error, got %v", err)
		}
	})

	t.Run("missing model name", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: sqlite\n  dsn: ':memory:'\n")
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "model name is required") {
			t.Fatalf("expected model name error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})
}
