package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIURL overrides api_url when set
const EnvAPIURL = "DOCUSAGE_API_URL"

// DefaultAPIURL is the local development backend
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	// Backend
	APIURL                string `yaml:"api_url"`
	ListPath              string `yaml:"list_path"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`

	// Upload checks mirrored from the backend
	AllowedTypes []string `yaml:"allowed_types"`
	MaxUploadMB  int      `yaml:"max_upload_mb"`

	// Listing
	DefaultSort string `yaml:"default_sort"`
	ReverseSort bool   `yaml:"reverse_sort"`

	// UI Settings
	DisplayDateFormat string `yaml:"display_date_format"`
	ColorTheme        string `yaml:"color_theme"`
	Editor            string `yaml:"editor"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Watch
	WatchDebounceMS int `yaml:"watch_debounce_ms"`
}

// DefaultAllowedTypes are the content types the backend accepts
func DefaultAllowedTypes() []string {
	return []string{
		"application/pdf",
		"text/plain",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:                DefaultAPIURL,
		ListPath:              "/files/",
		RequestTimeoutSeconds: 30,
		AllowedTypes:          DefaultAllowedTypes(),
		MaxUploadMB:           0,
		DefaultSort:           "",
		ReverseSort:           false,
		DisplayDateFormat:     "2006-01-02 15:04",
		ColorTheme:            "auto",
		Editor:                "",
		LogLevel:              "info",
		LogFile:               "",
		WatchDebounceMS:       500,
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for essential values if missing
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if strings.TrimSpace(cfg.ListPath) == "" {
		cfg.ListPath = "/files/"
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 30
	}
	if cfg.MaxUploadMB < 0 {
		cfg.MaxUploadMB = 0
	}
	if cfg.DisplayDateFormat == "" {
		cfg.DisplayDateFormat = "2006-01-02 15:04"
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}
	if !isValidSort(cfg.DefaultSort) {
		cfg.DefaultSort = ""
	}
	if !isValidLogLevel(cfg.LogLevel) {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides onto the config
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
}

// RequestTimeout returns the per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit, or 0 for none
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// WatchDebounce returns the watcher debounce interval
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isValidSort checks if the sort key is supported; empty keeps backend order
func isValidSort(sortBy string) bool {
	switch sortBy {
	case "", "date", "name", "size":
		return true
	}
	return false
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
