package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the coldmail client.
type Config struct {
	Service ServiceConfig
	UI      UIConfig
}

// ServiceConfig locates the email generation service.
type ServiceConfig struct {
	BaseURL string        // e.g. http://localhost:8000, without the route
	Timeout time.Duration // 0 leaves the transport default in place
}

// UIConfig controls the interactive form.
type UIConfig struct {
	StartDir string // file picker start directory, ~ expanded
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Service rawServiceConfig `yaml:"service"`
	UI      rawUIConfig      `yaml:"ui"`
}

type rawServiceConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type rawUIConfig struct {
	StartDir string `yaml:"start_dir"`
}

// Default returns the configuration used when no file is present.
// defaultBaseURL is normally the build-time service address.
func Default(defaultBaseURL string) *Config {
	return &Config{
		Service: ServiceConfig{BaseURL: defaultBaseURL},
		UI:      UIConfig{StartDir: "."},
	}
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// Fields left empty fall back to Default(defaultBaseURL).
func Load(path string, defaultBaseURL string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default(defaultBaseURL)

	if raw.Service.BaseURL != "" {
		cfg.Service.BaseURL = raw.Service.BaseURL
	}

	if raw.Service.Timeout != "" {
		cfg.Service.Timeout, err = time.ParseDuration(raw.Service.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse service.timeout %q: %w", raw.Service.Timeout, err)
		}
	}

	if raw.UI.StartDir != "" {
		cfg.UI.StartDir = expandHome(raw.UI.StartDir)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string, defaultBaseURL string) (*Config, error) {
	cfg, err := Load(path, defaultBaseURL)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default(defaultBaseURL)
		return cfg, validate(cfg)
	}
	return cfg, err
}

func validate(cfg *Config) error {
	if cfg.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required")
	}
	u, err := url.Parse(cfg.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url %q: %w", cfg.Service.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.base_url must be http or https, got %q", cfg.Service.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("service.base_url %q has no host", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout must not be negative, got %v", cfg.Service.Timeout)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
