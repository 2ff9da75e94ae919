// Package config provides configuration loading and structs for the Gantry server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIKey is the environment variable holding the Gemini API credential.
const EnvAPIKey = "GEMINI_API_KEY"

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Upload   UploadConfig   `yaml:"upload"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GeminiConfig holds settings for the generative completion API.
// The API key itself is never read from the config file; see LoadAPIKey.
type GeminiConfig struct {
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Timeout returns the per-request timeout as a duration.
func (g *GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// UploadConfig holds limits for the document upload boundary.
type UploadConfig struct {
	MaxFiles     int   `yaml:"max_files"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// AnalysisConfig holds task-analysis settings.
type AnalysisConfig struct {
	// AnchorDate fixes the "current date" used for task status computation,
	// in YYYY-MM-DD form. Empty means today (UTC).
	AnchorDate string `yaml:"anchor_date"`
}

// Anchor returns the configured anchor date, or today (UTC) when unset.
func (a *AnalysisConfig) Anchor() (time.Time, error) {
	if a.AnchorDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", a.AnchorDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor_date %q: %w", a.AnchorDate, err)
	}
	return t, nil
}

// WatchConfig holds directory watch settings for the local research folder mode.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// LoadAPIKey reads the Gemini credential from the environment and verifies it is
// minimally well-formed. Its absence is a startup-fatal condition: the caller must
// check before accepting any request.
func LoadAPIKey() (string, error) {
	key := os.Getenv(EnvAPIKey)
	if key == "" {
		return "", fmt.Errorf("%s is not set", EnvAPIKey)
	}
	if strings.TrimSpace(key) != key || strings.ContainsAny(key, " \t\n") {
		return "", fmt.Errorf("%s is malformed (contains whitespace)", EnvAPIKey)
	}
	return key, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
