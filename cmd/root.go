package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mandala-Network/Mandala-CLI/internal/cli"
	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

// Exit codes for CLI commands. These follow common conventions so scripts can
// tell an aborted deployment apart from a general failure.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeValidation indicates the run was aborted before anything was
	// deployed because a manifest or target failed validation.
	ExitCodeValidation = 2
)

// logLevel is the global verbosity, settable on every command.
var logLevel string

// rootCmd represents the base command for the mandala application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mandala",
	Short: "Deploy multi-service agent applications to Mandala Network nodes",
	Long: `mandala takes a deployment manifest describing a set of cooperating
agent services and deploys them to Mandala Network nodes: it resolves
targets (discovering GPU nodes where required), packages each service,
deploys them in dependency order, waits for readiness, and wires the
services together by injecting each other's URLs.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.ParseLevel(logLevel), os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mandala version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var validation *cli.ValidationError
	if errors.As(err, &validation) {
		return ExitCodeValidation
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newNodesCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
