// Package node implements the HTTP client for a single Mandala node: the
// unauthenticated capability probe plus the authenticated project lifecycle
// calls (register, create, deploy slot, archive upload, settings, readiness
// polling, service links, restart).
package node
