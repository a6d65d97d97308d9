package cli

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/caliberhq/caliper/internal/seeder"
)

// Seeder flag defaults.
const (
	defaultSeedAudits     = 500
	defaultSeedDuplicates = 10
	defaultSeedWindowDays = 30
	defaultSeedTimeout    = 30 * time.Second
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	config := &seeder.Config{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo audits against a running service",
		Long: `Generate plausible demo audits against the scorecards of a running
service, submit them through the HTTP API, and verify the stored totals
through the report endpoint.

A share of submissions is retried with the same submission ID to exercise
the idempotency path.

Example:
  caliper seed
  caliper seed --audits 2000 --workers 16 --url http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Verbose = rootOpts.Verbose
			return seeder.Run(cmd.Context(), config)
		},
	}

	cmd.Flags().StringVar(&config.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().IntVar(&config.NumAudits, "audits", defaultSeedAudits, "number of audits to generate")
	cmd.Flags().IntVar(&config.DuplicatePercent, "duplicates", defaultSeedDuplicates, "percent of submissions retried with the same submission ID")
	cmd.Flags().IntVar(&config.Workers, "workers", runtime.NumCPU()*2, "number of concurrent submitters")
	cmd.Flags().DurationVar(&config.Timeout, "timeout", defaultSeedTimeout, "HTTP request timeout")
	cmd.Flags().IntVar(&config.WindowDays, "window-days", defaultSeedWindowDays, "spread audit timestamps over this many past days")

	return cmd
}
