package dependency

import (
	"github.com/Mandala-Network/Mandala-CLI/internal/manifest"
)

// Graph answers dependency queries over a manifest's link set. An edge
// "from depends on to" exists for every declared link. It is *not*
// thread-safe by itself; callers must synchronise if they write concurrently.
type Graph struct {
	dependsOn map[string][]string
}

// NewGraph builds a graph from the declared links. Links whose endpoints are
// not in the service set are ignored; the manifest validator already rejects
// them for authored files.
func NewGraph(services []string, links []manifest.ServiceLink) *Graph {
	known := make(map[string]bool, len(services))
	for _, name := range services {
		known[name] = true
	}

	g := &Graph{dependsOn: make(map[string][]string, len(services))}
	for _, link := range links {
		if !known[link.From] || !known[link.To] {
			continue
		}
		g.dependsOn[link.From] = append(g.dependsOn[link.From], link.To)
	}
	return g
}

// Dependencies returns the services the given service needs URLs from.
func (g *Graph) Dependencies(name string) []string {
	deps := g.dependsOn[name]
	// Return a copy to avoid callers modifying the internal slice.
	depsCopy := make([]string, len(deps))
	copy(depsCopy, deps)
	return depsCopy
}

// Dependents returns all services that declare a link onto the given service.
// O(n) walk, but manifests are tiny.
func (g *Graph) Dependents(name string) []string {
	var res []string
	for from, deps := range g.dependsOn {
		for _, dep := range deps {
			if dep == name {
				res = append(res, from)
				break
			}
		}
	}
	return res
}

// Order computes a deployment order over the named services such that for
// every link, the providing service ("to") is deployed before the consuming
// service ("from"). Kahn's algorithm: the queue is seeded with all services
// that depend on nothing, in the order the caller passed them, and ties keep
// FIFO discipline rather than being sorted.
//
// The second return value reports whether the order respects every link. If
// the link set contains a cycle no such order exists; Order then returns the
// original service list unchanged and false, and the caller decides how loud
// to be about it. Self-links cannot be satisfied either and are ignored.
func Order(services []string, links []manifest.ServiceLink) ([]string, bool) {
	known := make(map[string]bool, len(services))
	for _, name := range services {
		known[name] = true
	}

	inDegree := make(map[string]int, len(services))
	successors := make(map[string][]string, len(services))
	for _, name := range services {
		inDegree[name] = 0
	}

	for _, link := range links {
		if !known[link.From] || !known[link.To] || link.From == link.To {
			continue
		}
		inDegree[link.From]++
		successors[link.To] = append(successors[link.To], link.From)
	}

	queue := make([]string, 0, len(services))
	for _, name := range services {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	ordered := make([]string, 0, len(services))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, name)

		for _, succ := range successors[name] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(ordered) < len(services) {
		// Cycle: fall back to the declared order, deploy-all and link after.
		fallback := make([]string, len(services))
		copy(fallback, services)
		return fallback, false
	}

	return ordered, true
}
