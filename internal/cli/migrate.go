package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/caliberhq/caliper/internal/adapters/repository"
	"github.com/caliberhq/caliper/pkg/logger"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	From   string
	To     string
	Tables string
}

// migrateStats accumulates per-run migration counts.
type migrateStats struct {
	tables  int
	copied  int
	skipped int
	roster  int
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy audits and roster between SQLite stores",
		Long: `Copy stored audits and the roster from one SQLite store to another.

Rows already present in the destination are skipped, so reruns are safe.
By default every audit table is copied; --tables restricts the copy to a
comma-separated subset.

Example:
  caliper migrate --from old.db --to caliper.db
  caliper migrate --from old.db --to caliper.db --tables chat_audits,voice_audits`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "path to the source SQLite database (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "path to the destination SQLite database (required)")
	cmd.Flags().StringVar(&opts.Tables, "tables", "", "comma-separated audit tables to copy (default all)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runMigrate(ctx context.Context, opts *MigrateOptions) error {
	if opts.From == opts.To {
		return fmt.Errorf("source and destination must differ: %q", opts.From)
	}

	log := logger.Get()
	start := time.Now()

	src, err := repository.OpenSQLite(opts.From)
	if err != nil {
		return fmt.Errorf("failed to open source store: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.Error(ctx, "failed to close source store", logger.Error(closeErr))
		}
	}()

	dst, err := repository.OpenSQLite(opts.To)
	if err != nil {
		return fmt.Errorf("failed to open destination store: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil {
			log.Error(ctx, "failed to close destination store", logger.Error(closeErr))
		}
	}()

	tables, err := resolveMigrateTables(ctx, src, opts.Tables)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("source store holds no audit tables")
	}

	stats := &migrateStats{}
	for _, table := range tables {
		copied, skipped, err := migrateTable(ctx, src, dst, table)
		if err != nil {
			return fmt.Errorf("failed to migrate table %q: %w", table, err)
		}
		log.Info(ctx, "migrated table",
			logger.String("table", table),
			logger.Int("copied", copied),
			logger.Int("skipped", skipped))
		stats.tables++
		stats.copied += copied
		stats.skipped += skipped
	}

	if err := migrateRoster(ctx, src, dst, stats); err != nil {
		return err
	}

	displayMigrateSummary(stats, time.Since(start))
	return nil
}

// resolveMigrateTables returns the tables to copy, validating any requested
// subset against the source store.
func resolveMigrateTables(ctx context.Context, src repository.Store, requested string) ([]string, error) {
	available := src.Tables(ctx)
	if requested == "" {
		return available, nil
	}

	known := make(map[string]bool, len(available))
	for _, t := range available {
		known[t] = true
	}

	var tables []string
	for _, t := range strings.Split(requested, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !known[t] {
			return nil, fmt.Errorf("table %q not found in source store (have %s)", t, strings.Join(available, ", "))
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// migrateTable copies one audit table. Rows already stored in the
// destination count as skipped.
func migrateTable(ctx context.Context, src, dst repository.Store, table string) (copied, skipped int, err error) {
	rows, err := src.ScanTable(ctx, table, repository.Window{})
	if err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		switch err := dst.SaveAudit(ctx, row); {
		case err == nil:
			copied++
		case errors.Is(err, repository.ErrDuplicateAudit):
			skipped++
		default:
			return copied, skipped, err
		}
	}
	return copied, skipped, nil
}

// migrateRoster copies the employee directory when the source has one.
func migrateRoster(ctx context.Context, src, dst repository.Store, stats *migrateStats) error {
	dir, err := src.Roster(ctx)
	if err != nil {
		return fmt.Errorf("failed to read source roster: %w", err)
	}
	if dir.Len() == 0 {
		return nil
	}
	if err := dst.UpsertRoster(ctx, dir.People()); err != nil {
		return fmt.Errorf("failed to write destination roster: %w", err)
	}
	stats.roster = dir.Len()
	return nil
}

// displayMigrateSummary prints the styled migration summary.
func displayMigrateSummary(stats *migrateStats, elapsed time.Duration) {
	title := lipgloss.NewStyle().Bold(true)
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	fmt.Println(title.Render("Migration summary"))
	fmt.Printf("  tables:   %d\n", stats.tables)
	fmt.Printf("  copied:   %s\n", ok.Render(strconv.Itoa(stats.copied)))
	fmt.Printf("  skipped:  %s\n", warn.Render(strconv.Itoa(stats.skipped)))
	fmt.Printf("  roster:   %d entries\n", stats.roster)
	fmt.Printf("  duration: %s\n", elapsed.Round(time.Millisecond))
}
