// Package logging provides a thin wrapper around log/slog that tags every
// entry with the subsystem it originated from (Orchestrator, Discovery,
// NodeClient, ...). Subcommands call Init once and then use the package-level
// Debug/Info/Warn/Error helpers.
package logging
