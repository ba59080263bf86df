package config

import "time"

// Config is the top-level CLI configuration loaded from config.yaml.
type Config struct {
	// Network is the default network for project creation when a target
	// does not declare one.
	Network string `yaml:"network,omitempty"`

	// Registries are the node registry endpoints queried during discovery,
	// in priority order. The MANDALA_REGISTRIES environment variable
	// (comma-separated) extends the list at load time.
	Registries []string `yaml:"registries,omitempty"`

	// ServiceURLTemplate derives a deployed service's externally reachable
	// URL from its project and node. This is a convention, not a protocol
	// guarantee; override it when a node routes differently. Template data:
	// .ProjectID, .ServiceName, .NodeDomain.
	ServiceURLTemplate string `yaml:"serviceUrlTemplate,omitempty"`

	// PollInterval and ReadyTimeout override the readiness wait defaults.
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	ReadyTimeout time.Duration `yaml:"readyTimeout,omitempty"`

	// Token authenticates against nodes. The MANDALA_TOKEN environment
	// variable takes precedence over the file value.
	Token string `yaml:"token,omitempty"`
}
