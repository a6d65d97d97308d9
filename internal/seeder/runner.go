package seeder

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/caliberhq/caliper/pkg/logger"
)

// Run executes a complete seeding pass: health check, scorecard discovery,
// generation, submission and a final report read-back.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting audit seeder",
		logger.String("baseURL", config.BaseURL),
		logger.Int("audits", config.NumAudits),
		logger.Int("workers", config.Workers),
		logger.Int("duplicatePercent", config.DuplicatePercent),
		logger.Int("windowDays", config.WindowDays))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	cards, err := fetchScorecards(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("scorecard discovery failed: %w", err)
	}

	audits, err := generateAudits(ctx, config, cards, stats)
	if err != nil {
		return fmt.Errorf("audit generation failed: %w", err)
	}

	if err := submitAudits(ctx, config, audits, stats); err != nil {
		return fmt.Errorf("audit submission failed: %w", err)
	}

	// Read the report back so the aggregation path is exercised too.
	report, err := fetchReport(ctx, client, config)
	if err != nil {
		logger.Get().Warn(ctx, "report read-back failed", logger.Error(err))
	} else {
		stats.ReportAudits = report.TotalAudits
		if report.TotalAudits < stats.AuditsStored {
			logger.Get().Warn(ctx, "report covers fewer audits than were stored",
				logger.Int("reportAudits", report.TotalAudits),
				logger.Int("stored", stats.AuditsStored))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displaySummary(stats)

	logger.Get().Info(ctx, "seeding completed")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, baseURL string) error {
	resp, err := client.get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// displaySummary prints the styled run summary and the conservation check.
func displaySummary(stats *Stats) {
	title := lipgloss.NewStyle().Bold(true)
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

	fmt.Println(title.Render("Seeding summary"))
	fmt.Printf("  generated:  %d\n", stats.AuditsGenerated)
	fmt.Printf("  stored:     %s\n", ok.Render(strconv.Itoa(stats.AuditsStored)))
	fmt.Printf("  duplicates: %s\n", warn.Render(strconv.Itoa(stats.AuditsDuplicate)))
	if stats.AuditsFailed > 0 {
		fmt.Printf("  failed:     %s\n", bad.Render(strconv.Itoa(stats.AuditsFailed)))
	} else {
		fmt.Printf("  failed:     %s\n", gray.Render("0"))
	}
	fmt.Printf("  duration:   %s\n", stats.Duration.Round(time.Millisecond))
	if stats.ReportAudits > 0 {
		fmt.Printf("  report now covers %d audits\n", stats.ReportAudits)
	}

	if stats.AuditsStored+stats.AuditsDuplicate+stats.AuditsFailed == stats.AuditsSubmitted {
		fmt.Println(ok.Render("✓ conservation holds: submitted == stored + duplicates + failed"))
	} else {
		fmt.Println(bad.Render("✗ conservation broken: outcome counts do not sum to submissions"))
	}
}
