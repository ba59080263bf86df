package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mandala-Network/Mandala-CLI/internal/cli"
	"github.com/Mandala-Network/Mandala-CLI/internal/config"
	"github.com/Mandala-Network/Mandala-CLI/internal/manifest"
	"github.com/Mandala-Network/Mandala-CLI/internal/orchestrator"
)

// deployYes skips the interactive node selection prompt and picks nodes
// automatically. Required for CI and scripted runs.
var deployYes bool

// deployTimeout overrides the per-service readiness timeout.
var deployTimeout time.Duration

// deployNetwork overrides the network declared in the config and manifest.
var deployNetwork string

// newDeployCmd creates the Cobra command that runs a full deployment.
func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [manifest]",
		Short: "Deploy all services in a manifest to their Mandala Network nodes",
		Long: `Reads a deployment manifest, resolves every deployment target to a
concrete node (discovering GPU nodes through the registry where the target
requires one), packages each service, and deploys them in dependency order.

Each deployed service is polled until it reports ready, then services are
linked together: for every declared link the consuming service receives the
provider's URL as an environment variable.

After the run the manifest is written back with the resolved node URLs and
project IDs, so re-running is incremental: existing projects are reused
instead of recreated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDeploy,
	}

	cmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "select nodes automatically instead of prompting")
	cmd.Flags().DurationVar(&deployTimeout, "timeout", 0, "per-service readiness timeout (default 5m)")
	cmd.Flags().StringVar(&deployNetwork, "network", "", "network for targets that do not declare one (default mainnet)")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	manifestPath := manifest.DefaultFileName
	if len(args) == 1 {
		manifestPath = args[0]
	}

	cfg, err := config.LoadConfig(config.GetDefaultConfigPathOrPanic())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if deployTimeout > 0 {
		cfg.ReadyTimeout = deployTimeout
	}
	if deployNetwork != "" {
		cfg.Network = deployNetwork
	}

	man, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	var selector orchestrator.NodeSelector
	if deployYes {
		selector = orchestrator.AutoSelector{}
	} else {
		selector = cli.NewNodePrompt()
	}

	orch, err := orchestrator.New(cfg, man, orchestrator.Options{
		ManifestPath: manifestPath,
		Selector:     selector,
		Out:          cmd.OutOrStdout(),
		ShowProgress: !deployYes,
	})
	if err != nil {
		return err
	}

	_, err = orch.Deploy(cmd.Context())
	return err
}
