package orchestrator

import (
	"fmt"

	"github.com/Mandala-Network/Mandala-CLI/internal/discovery"
)

// NodeSelector picks one node out of a discovery result. No discovery entry
// is canonically "best", so the choice is either the operator's (interactive
// prompt) or a declared policy (AutoSelector for --yes runs).
type NodeSelector interface {
	SelectNode(targetName string, candidates []discovery.DiscoveredNode) (*discovery.DiscoveredNode, error)
}

// AutoSelector picks the candidate with the highest available GPU count,
// falling back to the first candidate when none advertise availability.
type AutoSelector struct{}

// SelectNode implements NodeSelector.
func (AutoSelector) SelectNode(targetName string, candidates []discovery.DiscoveredNode) (*discovery.DiscoveredNode, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate nodes for target %q", targetName)
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].GPU.Available > candidates[best].GPU.Available {
			best = i
		}
	}
	return &candidates[best], nil
}
