package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

const (
	userConfigDir  = ".config/mandala"
	configFileName = "config.yaml"

	registriesEnvVar = "MANDALA_REGISTRIES"
	tokenEnvVar      = "MANDALA_TOKEN"
)

// GetDefaultConfigPathOrPanic returns the user configuration directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the given directory, starting from
// defaults. A missing config.yaml is not an error; a malformed one is.
// Environment overrides (MANDALA_REGISTRIES, MANDALA_TOKEN) are applied last.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return applyEnvOverrides(cfg), nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	// A config file that sets other keys must not wipe the built-in ones.
	defaults := GetDefaultConfig()
	if len(cfg.Registries) == 0 {
		cfg.Registries = defaults.Registries
	}
	if cfg.ServiceURLTemplate == "" {
		cfg.ServiceURLTemplate = defaults.ServiceURLTemplate
	}
	if cfg.Network == "" {
		cfg.Network = defaults.Network
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaults.ReadyTimeout
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return applyEnvOverrides(cfg), nil
}

func applyEnvOverrides(cfg Config) Config {
	if extra := os.Getenv(registriesEnvVar); extra != "" {
		for _, endpoint := range strings.Split(extra, ",") {
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				cfg.Registries = append(cfg.Registries, endpoint)
			}
		}
	}
	if token := os.Getenv(tokenEnvVar); token != "" {
		cfg.Token = token
	}
	return cfg
}
