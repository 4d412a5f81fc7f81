// Package unitmix produces the initial per-unit-type breakdown for an
// onboarded building: an LLM provider infers the mix from the building's
// characteristics, and a deterministic square-footage heuristic covers
// every case where no provider is configured or the reply is unusable.
package unitmix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config selects the model backend for inference. Loaded from
// config/models.yaml; a zero Config means heuristic-only operation.
type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig carries per-provider settings.
type ProviderConfig struct {
	Model string `yaml:"model"`
}

// LoadConfig reads the YAML provider config. A missing file is not an
// error; it selects the heuristic-only mode.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, nil
}
