package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// setHome points HOME at a fresh temp dir and clears overrides.
func setHome(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvLogFile, "")
	return tempDir
}

func writeConfig(t *testing.T, home, content string) string {
	t.Helper()
	configDir := filepath.Join(home, ".zipstore")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return configPath
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Compression != "deflate" {
		t.Errorf("Compression = %q, expected %q", cfg.Compression, "deflate")
	}
	if cfg.Level != -1 {
		t.Errorf("Level = %d, expected -1", cfg.Level)
	}
	if cfg.BufferSize != 2048 {
		t.Errorf("BufferSize = %d, expected 2048", cfg.BufferSize)
	}
	if cfg.TempPattern != "zipstore_*.zip" {
		t.Errorf("TempPattern = %q, expected %q", cfg.TempPattern, "zipstore_*.zip")
	}
	if !cfg.Manifest.Enabled || cfg.Manifest.KeepLast != 10 {
		t.Errorf("Manifest = %+v, expected enabled with keep_last 10", cfg.Manifest)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, expected warn/text", cfg.Log)
	}

	found := false
	for _, exc := range cfg.Exclude {
		if exc == ".git" {
			found = true
		}
	}
	if !found {
		t.Error("Expected .git in default exclusions")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	setHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed for missing config: %v", err)
	}
	if cfg.Compression != "deflate" {
		t.Errorf("Expected default compression, got %q", cfg.Compression)
	}
}

func TestLoadValidConfig(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, `
compression: store
level: 9
buffer_size: 4096
temp_dir: /custom/tmp
temp_pattern: "custom_*.zip"
exclude:
  - custom_exclude
manifest:
  enabled: false
  keep_last: 3
log:
  level: debug
  format: json
  file: /var/log/zipstore.log
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Compression != "store" {
		t.Errorf("Compression = %q, expected %q", cfg.Compression, "store")
	}
	if cfg.Level != 9 {
		t.Errorf("Level = %d, expected 9", cfg.Level)
	}
	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, expected 4096", cfg.BufferSize)
	}
	if cfg.TempDir != "/custom/tmp" {
		t.Errorf("TempDir = %q, expected %q", cfg.TempDir, "/custom/tmp")
	}
	if cfg.TempPattern != "custom_*.zip" {
		t.Errorf("TempPattern = %q, expected %q", cfg.TempPattern, "custom_*.zip")
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "custom_exclude" {
		t.Errorf("Exclude = %v, expected [custom_exclude]", cfg.Exclude)
	}
	if cfg.Manifest.Enabled || cfg.Manifest.KeepLast != 3 {
		t.Errorf("Manifest = %+v, expected disabled with keep_last 3", cfg.Manifest)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Log.File != "/var/log/zipstore.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, "compression: store\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Compression != "store" {
		t.Errorf("Compression = %q, expected %q", cfg.Compression, "store")
	}
	// Unspecified fields keep defaults
	if cfg.BufferSize != 2048 {
		t.Errorf("BufferSize = %d, expected default 2048", cfg.BufferSize)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, expected default text", cfg.Log.Format)
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, "compression: [unclosed\n")

	if _, err := Load(); err == nil {
		t.Error("Load should fail for malformed YAML")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad compression", content: "compression: lzma\n", wantErr: "compression"},
		{name: "level too high", content: "level: 12\n", wantErr: "level"},
		{name: "negative buffer", content: "buffer_size: -5\n", wantErr: "buffer_size"},
		{name: "bad log level", content: "log:\n  level: loud\n", wantErr: "log.level"},
		{name: "bad log format", content: "log:\n  format: xml\n", wantErr: "log.format"},
		{name: "negative keep_last", content: "manifest:\n  keep_last: -1\n", wantErr: "keep_last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := setHome(t)
			writeConfig(t, home, tt.content)

			_, err := Load()
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPathOverride(t *testing.T) {
	setHome(t)
	custom := filepath.Join(t.TempDir(), "alt.yaml")
	t.Setenv(EnvConfigPath, custom)

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath failed: %v", err)
	}
	if path != custom {
		t.Errorf("ConfigPath = %q, expected %q", path, custom)
	}

	if err := os.WriteFile(custom, []byte("level: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Level != 3 {
		t.Errorf("Level = %d, expected 3", cfg.Level)
	}
}

func TestLogFileEnvOverride(t *testing.T) {
	setHome(t)
	t.Setenv(EnvLogFile, "/tmp/zipstore-test.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.File != "/tmp/zipstore-test.log" {
		t.Errorf("Log.File = %q, expected env override", cfg.Log.File)
	}
}

func TestSaveConfig(t *testing.T) {
	home := setHome(t)

	cfg, _ := DefaultConfig()
	cfg.Compression = "store"
	cfg.Exclude = []string{"a", "b"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".zipstore", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Compression != "store" {
		t.Errorf("Compression = %q, expected %q", loaded.Compression, "store")
	}
	if len(loaded.Exclude) != 2 {
		t.Errorf("Exclude = %v, expected 2 entries", loaded.Exclude)
	}
}

func TestMethod(t *testing.T) {
	cfg := &Config{Compression: "store"}
	if cfg.Method() != ports.MethodStore {
		t.Errorf("Method() = %d, expected store", cfg.Method())
	}
	cfg.Compression = "deflate"
	if cfg.Method() != ports.MethodDeflate {
		t.Errorf("Method() = %d, expected deflate", cfg.Method())
	}
}

func TestExpandPath(t *testing.T) {
	home := setHome(t)

	tests := []struct {
		input    string
		expected string
	}{
		{"~/archives", filepath.Join(home, "archives")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		if err != nil {
			t.Errorf("ExpandPath(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ExpandPath(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
