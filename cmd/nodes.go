package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Mandala-Network/Mandala-CLI/internal/config"
	"github.com/Mandala-Network/Mandala-CLI/internal/discovery"
)

// nodesGPU limits the listing to nodes advertising a GPU.
var nodesGPU bool

// nodesGPUType limits the listing to nodes advertising a specific GPU type.
var nodesGPUType string

// newNodesCmd creates the node discovery command group.
func newNodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Discover Mandala Network nodes",
	}
	cmd.AddCommand(newNodesListCmd())
	return cmd
}

func newNodesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes known to the configured registries",
		Long: `Queries every configured registry for Mandala Network nodes and prints
them as a table. Nodes advertised by several registries appear once.`,
		Args: cobra.NoArgs,
		RunE: runNodesList,
	}

	cmd.Flags().BoolVar(&nodesGPU, "gpu", false, "only list nodes with a GPU")
	cmd.Flags().StringVar(&nodesGPUType, "gpu-type", "", "only list nodes with this GPU type")

	return cmd
}

func runNodesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(config.GetDefaultConfigPathOrPanic())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	filter := discovery.Filter{GPU: nodesGPU || nodesGPUType != "", GPUType: nodesGPUType}
	nodes := discovery.Discover(cmd.Context(), cfg.Registries, filter)
	if len(nodes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No nodes found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"URL", "GPU", "Available", "Runtimes", "Last Seen"})
	for _, n := range nodes {
		gpu := "-"
		if n.GPU.Enabled {
			gpu = n.GPU.Type
			if gpu == "" {
				gpu = "yes"
			}
		}
		lastSeen := "-"
		if !n.LastSeen.IsZero() {
			lastSeen = n.LastSeen.UTC().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{n.URL, gpu, n.GPU.Available, strings.Join(n.Runtimes, ","), lastSeen})
	}
	t.Render()

	return nil
}
