package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_appliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug: got false")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if cfg.Gemini.Model == "" {
		t.Error("gemini model default missing")
	}
	if cfg.Gemini.Timeout() != 120*time.Second {
		t.Errorf("timeout: got %v", cfg.Gemini.Timeout())
	}
	if cfg.Upload.MaxFiles != 10 {
		t.Errorf("max_files: got %d", cfg.Upload.MaxFiles)
	}
}

func TestLoad_overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
gemini:
  model: gemini-2.5-pro
  timeout_seconds: 30
upload:
  max_files: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server: got %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("model: got %q", cfg.Gemini.Model)
	}
	if cfg.Upload.MaxFiles != 3 {
		t.Errorf("max_files: got %d", cfg.Upload.MaxFiles)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_expandsWatchDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("watch:\n  directories: [\"./docs\"]\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "docs")
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != want {
		t.Errorf("directories: got %v, want [%s]", cfg.Watch.Directories, want)
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive default: got false")
	}
}

func TestLoadAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "abc123")
	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey: %v", err)
	}
	if key != "abc123" {
		t.Errorf("got %q", key)
	}
}

func TestLoadAPIKey_missing(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	if _, err := LoadAPIKey(); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestLoadAPIKey_whitespace(t *testing.T) {
	t.Setenv(EnvAPIKey, "abc 123")
	if _, err := LoadAPIKey(); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestAnalysisAnchor(t *testing.T) {
	a := AnalysisConfig{AnchorDate: "2025-11-14"}
	got, err := a.Anchor()
	if err != nil {
		t.Fatalf("Anchor: %v", err)
	}
	want := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAnalysisAnchor_invalid(t *testing.T) {
	a := AnalysisConfig{AnchorDate: "14/11/2025"}
	if _, err := a.Anchor(); err == nil {
		t.Error("expected error for invalid anchor_date")
	}
}

func TestAnalysisAnchor_empty(t *testing.T) {
	a := AnalysisConfig{}
	got, err := a.Anchor()
	if err != nil {
		t.Fatalf("Anchor: %v", err)
	}
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Errorf("expected UTC midnight, got %v", got)
	}
}
