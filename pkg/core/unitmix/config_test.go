package unitmix

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := `active_provider: gemini
providers:
  gemini:
    model: gemini-2.0-flash-exp
  deepseek:
    model: deepseek-chat
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if config.ActiveProvider != "gemini" {
		t.Errorf("Expected gemini active, got %q", config.ActiveProvider)
	}
	if config.Providers["deepseek"].Model != "deepseek-chat" {
		t.Errorf("Unexpected provider config: %+v", config.Providers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("A missing config selects heuristic mode, got error: %v", err)
	}
	if config.ActiveProvider != "" {
		t.Errorf("Expected zero config, got %+v", config)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte("active_provider: [unclosed"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed yaml")
	}
}
