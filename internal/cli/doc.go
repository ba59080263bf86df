// Package cli holds user-facing helpers shared by the cmd layer and the
// orchestrator: connection-error classification for actionable messages,
// typed validation errors that map to exit codes, and the interactive
// node-selection prompt.
package cli
