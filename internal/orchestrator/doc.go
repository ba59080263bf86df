// Package orchestrator coordinates multi-service deployments: it validates
// every declared target against the node's advertised capabilities, prepares
// projects, deploys services in dependency order, injects cross-service URLs
// as environment variables and reports the outcome.
//
// A run moves through fixed stages. Validation and preparation are
// fail-fast: nothing has been deployed yet, so any unreachable or
// incompatible target aborts the whole run. Per-service packaging or upload
// failures abort the remaining services but never roll back services already
// deployed (deployment is not transactional). Readiness timeouts and
// unresolvable links are soft failures: they are reported and the run
// continues.
package orchestrator
