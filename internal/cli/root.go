// Package cli assembles the caliper command tree: serve runs the audit
// service, seed generates demo traffic, migrate copies audits between
// SQLite stores.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caliberhq/caliper/pkg/logger"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the caliper CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "caliper",
		Short: "Caliper - scorecard audit evaluation service",
		Long: "Caliper evaluates customer-support quality audits against weighted\n" +
			"scorecards and aggregates the results into performance reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if opts.Verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
