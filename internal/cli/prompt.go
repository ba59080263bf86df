package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Mandala-Network/Mandala-CLI/internal/discovery"
)

// NodePrompt asks the user to pick one of the discovered nodes on the
// terminal. It satisfies the orchestrator's NodeSelector interface.
type NodePrompt struct{}

// NewNodePrompt creates an interactive node selector.
func NewNodePrompt() *NodePrompt {
	return &NodePrompt{}
}

// SelectNode prints the candidates as a table and reads the user's choice.
// An empty answer picks the first candidate.
func (p *NodePrompt) SelectNode(targetName string, candidates []discovery.DiscoveredNode) (*discovery.DiscoveredNode, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidate nodes to select from")
	}

	fmt.Fprintf(os.Stdout, "Select a node for target %q:\n", targetName)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "URL", "GPU", "Available", "Runtimes"})
	for i, n := range candidates {
		gpu := "-"
		if n.GPU.Enabled {
			gpu = n.GPU.Type
			if gpu == "" {
				gpu = "yes"
			}
		}
		t.AppendRow(table.Row{i + 1, n.URL, gpu, n.GPU.Available, strings.Join(n.Runtimes, ",")})
	}
	t.Render()

	rl, err := readline.New(fmt.Sprintf("node [1-%d] (1): ", len(candidates)))
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil, fmt.Errorf("selection aborted: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return &candidates[0], nil
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(candidates) {
			fmt.Fprintf(os.Stdout, "enter a number between 1 and %d\n", len(candidates))
			continue
		}
		return &candidates[idx-1], nil
	}
}
