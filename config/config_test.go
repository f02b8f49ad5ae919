package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
db_path: /var/lib/todo/tasks.db
log:
  level: debug
  format: json
edit:
  allow_timestamps: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/var/lib/todo/tasks.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Edit.AllowTimestamps {
		t.Error("AllowTimestamps = false, want true")
	}
	if cfg.Log.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d, want default 3", cfg.Log.MaxBackups)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db_path: from-file.db\n")
	t.Setenv("TODO_DB_PATH", "from-env.db")
	t.Setenv("TODO_LOG_LEVEL", "error")
	t.Setenv("TODO_ALLOW_TIMESTAMP_EDIT", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Errorf("DBPath = %q, want from-env.db", cfg.DBPath)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Log.Level)
	}
	if !cfg.Edit.AllowTimestamps {
		t.Error("AllowTimestamps = false, want true")
	}
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "tasks.db" {
		t.Errorf("DBPath = %q, want tasks.db", cfg.DBPath)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "Level") {
		t.Errorf("error = %v, want validation failure naming Level", err)
	}

	t.Setenv("TODO_ALLOW_TIMESTAMP_EDIT", "maybe")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Error("expected error for non-boolean TODO_ALLOW_TIMESTAMP_EDIT")
	}
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty db_path")
	}
}
