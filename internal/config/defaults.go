package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 120
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 16384
	}
	if cfg.Gemini.RequestsPerSecond == 0 {
		cfg.Gemini.RequestsPerSecond = 2.0
	}
	if cfg.Gemini.Burst == 0 {
		cfg.Gemini.Burst = 4
	}
	if cfg.Upload.MaxFiles == 0 {
		cfg.Upload.MaxFiles = 10
	}
	if cfg.Upload.MaxFileBytes == 0 {
		cfg.Upload.MaxFileBytes = 10 << 20 // 10 MiB
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".md", ".markdown", ".txt", ".docx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
