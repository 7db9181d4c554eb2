package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got: %d", config.Server.Port)
	}
	if config.Engine.DefaultEngine != "chromedp" {
		t.Errorf("Expected default engine chromedp, got: %s", config.Engine.DefaultEngine)
	}
	if !config.Engine.Headless {
		t.Error("Expected headless to default to true")
	}
	if config.Jobs.MaxConcurrent != 0 {
		t.Errorf("Expected unbounded concurrency by default, got: %d", config.Jobs.MaxConcurrent)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "first.toml")
	if err := os.WriteFile(first, []byte("[server]\nport = 9090\nhost = \"0.0.0.0\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	second := filepath.Join(dir, "second.toml")
	if err := os.WriteFile(second, []byte("[server]\nport = 9999\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadFromFiles(first, second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Later files override earlier ones
	if config.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from second file, got: %d", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host from first file to survive, got: %s", config.Server.Host)
	}
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/probo.toml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROBO_PORT", "7070")
	t.Setenv("PROBO_DEFAULT_ENGINE", "agent")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("Expected env override port 7070, got: %d", config.Server.Port)
	}
	if config.Engine.DefaultEngine != "agent" {
		t.Errorf("Expected env override engine agent, got: %s", config.Engine.DefaultEngine)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := DefaultConfig()

	ApplyFlagOverrides(config, 6060, "example.local")

	if config.Server.Port != 6060 {
		t.Errorf("Expected flag override port 6060, got: %d", config.Server.Port)
	}
	if config.Server.Host != "example.local" {
		t.Errorf("Expected flag override host, got: %s", config.Server.Host)
	}

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 6060 || config.Server.Host != "example.local" {
		t.Error("Expected zero flag values to be ignored")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := DefaultConfig()
	config.Server.Port = -1
	if err := config.Validate(); err == nil {
		t.Error("Expected error for negative port")
	}

	config = DefaultConfig()
	config.Engine.DefaultEngine = "selenium"
	if err := config.Validate(); err == nil {
		t.Error("Expected error for unknown engine")
	}

	config = DefaultConfig()
	config.Engine.ScreenshotInterval = "not-a-duration"
	if err := config.Validate(); err == nil {
		t.Error("Expected error for malformed duration")
	}
}
