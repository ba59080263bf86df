// Package discovery finds candidate nodes by querying well-known registry
// endpoints for nodes matching a capability filter. Discovery is best-effort
// by design: unreachable registries and malformed records are skipped, and
// results are merged across registries with duplicates removed by URL.
package discovery
