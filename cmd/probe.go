package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Mandala-Network/Mandala-CLI/internal/node"
)

// newProbeCmd creates the command that inspects a single node's capabilities.
func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <node-url>",
		Short: "Probe a node's public capabilities",
		Long: `Fetches a node's public capability descriptor: GPU availability,
supported runtimes, supported manifest schema versions, and pricing.
Probing needs no authentication and changes nothing on the node.`,
		Args: cobra.ExactArgs(1),
		RunE: runProbe,
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	caps, err := node.Probe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("probe of %s failed: %w", args[0], err)
	}

	gpu := "disabled"
	if caps.GPU.Enabled {
		gpu = fmt.Sprintf("%s (%d available)", orDash(caps.GPU.Type), caps.GPU.Available)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendRow(table.Row{"URL", caps.URL})
	t.AppendRow(table.Row{"GPU", gpu})
	t.AppendRow(table.Row{"Runtimes", orDash(strings.Join(caps.SupportedRuntimes, ", "))})
	t.AppendRow(table.Row{"Schema versions", orDash(strings.Join(caps.SchemaVersions, ", "))})
	resources := make([]string, 0, len(caps.Pricing))
	for resource := range caps.Pricing {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	for _, resource := range resources {
		t.AppendRow(table.Row{"Price: " + resource, caps.Pricing[resource]})
	}
	t.Render()

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
