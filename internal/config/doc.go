// Package config loads the CLI's own configuration (registry endpoints,
// default network, service URL convention, auth token) from
// ~/.config/mandala/config.yaml, with environment variable overrides.
// Deployment manifests are a separate concern, see internal/manifest.
package config
