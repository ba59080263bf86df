package config

import "time"

const (
	// DefaultRegistry is the well-known public node registry.
	DefaultRegistry = "https://registry.mandalanetwork.io"

	// DefaultServiceURLTemplate is the conventional routing scheme nodes use
	// for deployed projects.
	DefaultServiceURLTemplate = "https://{{.ProjectID}}.{{.NodeDomain}}"
)

// GetDefaultConfig returns the configuration used when no config.yaml exists.
func GetDefaultConfig() Config {
	return Config{
		Network:            "mainnet",
		Registries:         []string{DefaultRegistry},
		ServiceURLTemplate: DefaultServiceURLTemplate,
		PollInterval:       5 * time.Second,
		ReadyTimeout:       300 * time.Second,
	}
}
