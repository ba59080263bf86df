// Package dependency computes the order in which interdependent services are
// deployed. Every manifest link "from needs the URL of to" implies that "to"
// must be provisioned first; Order produces a topological order over the
// declared services and degrades to the declared order when links form a
// cycle, since already-deployed services can still be linked afterwards.
package dependency
