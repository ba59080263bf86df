// Package manifest defines the deployment manifest data model (services,
// links, deployment targets, shared environment) and its JSON persistence.
// The manifest file is the durable record of what got deployed where: the
// orchestrator loads it, mutates it in place as targets get resolved, and
// saves it back so a re-run is incremental.
package manifest
