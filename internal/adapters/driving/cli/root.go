// Package cli implements the command-line interface. Commands talk to
// the core through driving ports; wiring happens once before execution.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/core/ports/driving"
	"github.com/agora-labs/agora-cli/internal/logger"
)

// Services injected by the bootstrap before command execution.
// Commands check for nil and fail with a clear message, which keeps
// them unit-testable with mocks.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
	configStore   driven.ConfigStore
)

// version is set via Execute from the build.
var version = "dev"

var (
	verbose bool
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "agora",
	Short: "Ask questions over your documents",
	Long: `Agora ingests PDF, Markdown and plain-text documents, splits them
into sections, embeds them and answers questions grounded in the
retrieved sections.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return bootstrap()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.agora)")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
