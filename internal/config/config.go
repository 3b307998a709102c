package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "ZIPSTORE_CONFIG"

// EnvLogFile overrides log.file.
const EnvLogFile = "ZIPSTORE_LOG_FILE"

type Config struct {
	Compression string   `yaml:"compression"`
	Level       int      `yaml:"level"`
	BufferSize  int      `yaml:"buffer_size"`
	TempDir     string   `yaml:"temp_dir"`
	TempPattern string   `yaml:"temp_pattern"`
	Exclude     []string `yaml:"exclude"`
	Manifest    struct {
		Enabled  bool `yaml:"enabled"`
		KeepLast int  `yaml:"keep_last"`
	} `yaml:"manifest"`
	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func DefaultConfig() (*Config, error) {
	cfg := &Config{
		Compression: "deflate",
		Level:       -1,
		BufferSize:  2048,
		TempPattern: "zipstore_*.zip",
		Exclude: []string{
			".git",
			".DS_Store",
			"node_modules",
			"*.tmp",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
	cfg.Manifest.Enabled = true
	cfg.Manifest.KeepLast = 10
	return cfg, nil
}

func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".zipstore", "config.yaml"), nil
}

func Load() (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if f := os.Getenv(EnvLogFile); f != "" {
		c.Log.File = f
	}
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated fields and ranges.
func (c *Config) Validate() error {
	switch c.Compression {
	case "deflate", "store":
	default:
		return fmt.Errorf("compression must be deflate or store, got %q", c.Compression)
	}
	if c.Level < -1 || c.Level > 9 {
		return fmt.Errorf("level must be between -1 and 9, got %d", c.Level)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative, got %d", c.BufferSize)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "console":
	default:
		return fmt.Errorf("log.format must be text, json or console, got %q", c.Log.Format)
	}
	if c.Manifest.KeepLast < 0 {
		return fmt.Errorf("manifest.keep_last must not be negative, got %d", c.Manifest.KeepLast)
	}
	return nil
}

// Method returns the zip method for new entries.
func (c *Config) Method() uint16 {
	if c.Compression == "store" {
		return ports.MethodStore
	}
	return ports.MethodDeflate
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", path, err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
