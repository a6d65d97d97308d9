package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caliberhq/caliper/internal/adapters/catalog"
	"github.com/caliberhq/caliper/internal/adapters/repository"
	service "github.com/caliberhq/caliper/internal/app"
	"github.com/caliberhq/caliper/internal/domain/evaluate"
	"github.com/caliberhq/caliper/internal/domain/period"
	"github.com/caliberhq/caliper/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const chatCardYAML = `id: chat-quality
name: Chat Quality
table: chat_audits
channel: chat
policy: deductive
passing_threshold: 85
parameters:
  - field_id: lateness
    label: Late replies
    kind: error
    error_category: Significant Error
    points: 5
    order: 0
  - field_id: protocol_breach
    label: Protocol breach
    kind: error
    error_category: Critical Fail
    points: 25
    fail_all: true
    order: 1
`

const voiceCardYAML = `id: voice-quality
name: Voice Quality
table: voice_audits
channel: voice
policy: hybrid
passing_threshold: 80
max_bonus_points: 10
parameters:
  - field_id: hold_abuse
    label: Excessive holds
    kind: error
    error_category: Major Error
    points: 4
    order: 0
  - field_id: upsell
    label: Upsell offered
    kind: bonus
    field_type: radio
    points: 5
    order: 1
`

const rosterYAML = `- email: ana@example.com
  name: Ana Ortiz
  team: Falcons
  role: Agent
- email: ben@example.com
  name: Ben Reyes
  team: Otters
  role: Agent
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// startService spins up a service over temp scorecard fixtures and tears
// it down with the test.
func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "chat.yaml", chatCardYAML)
	writeFile(t, dir, "voice.yaml", voiceCardYAML)

	all := append([]service.Option{
		service.WithScorecardGlob(filepath.Join(dir, "*.yaml")),
	}, opts...)
	svc := service.New(all...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func chatSubmission(submissionID string, late int) service.Submission {
	return service.Submission{
		SubmissionID:  submissionID,
		ScorecardID:   "chat-quality",
		EmployeeEmail: "ana@example.com",
		EmployeeName:  "Ana Ortiz",
		InteractionID: "chat-812",
		AuditorEmail:  "lead@example.com",
		AuditedAt:     time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC),
		Responses:     evaluate.RawInput{"lateness": late},
		Feedback:      map[string]string{"lateness": "slow first response"},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["store"], ShouldEqual, "memory")
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithFetchWorkers(3),
			service.WithDedupeSize(500),
			service.WithMaxReportDays(30),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["fetchWorkers"], ShouldEqual, 3)
			So(stats["dedupeSize"], ShouldEqual, 500)
			So(stats["maxReportDays"], ShouldEqual, 30)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service over scorecard fixtures", t, func() {
		svc := startService(t)

		Convey("Then it should be marked as started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["scorecards"], ShouldEqual, 2)
		})

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a glob that matches no scorecards", t, func() {
		svc := service.New(
			service.WithScorecardGlob(filepath.Join(t.TempDir(), "*.yaml")),
		)

		Convey("Then starting should fail", func() {
			err := svc.Start(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, catalog.ErrNoScorecards), ShouldBeTrue)
		})
	})
}

func TestService_StartWithRoster(t *testing.T) {
	Convey("Given a service with a roster file", t, func() {
		rosterPath := writeFile(t, t.TempDir(), "roster.yaml", rosterYAML)
		svc := startService(t, service.WithRosterPath(rosterPath))

		Convey("Then the roster should be loaded into the store", func() {
			stats := svc.GetStats()
			So(stats["rosterEntries"], ShouldEqual, 2)
		})
	})

	Convey("Given a roster file that fails validation", t, func() {
		rosterPath := writeFile(t, t.TempDir(), "roster.yaml", "- name: No Email\n")
		dir := t.TempDir()
		writeFile(t, dir, "chat.yaml", chatCardYAML)
		svc := service.New(
			service.WithScorecardGlob(filepath.Join(dir, "*.yaml")),
			service.WithRosterPath(rosterPath),
		)

		Convey("Then starting should fail", func() {
			err := svc.Start(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, catalog.ErrInvalidRoster), ShouldBeTrue)
		})
	})
}

func TestService_SubmitAudit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When submitting a passing chat audit", func() {
			receipt, err := svc.SubmitAudit(ctx, chatSubmission("sub-1", 2))

			Convey("Then it should be evaluated and stored", func() {
				So(err, ShouldBeNil)
				So(receipt.Duplicate, ShouldBeFalse)
				So(receipt.AuditID, ShouldNotBeEmpty)
				So(receipt.Result.Score, ShouldEqual, 90)
				So(receipt.Result.Verdict, ShouldEqual, evaluate.VerdictPassing)
				So(receipt.Result.Errors.Significant, ShouldEqual, 2)
				So(receipt.Result.Errors.Total, ShouldEqual, 2)
				So(receipt.Result.Quarter, ShouldEqual, "Q2")
				So(receipt.Result.Week, ShouldEqual, 15)

				stats := svc.GetStats()
				So(stats["audits"], ShouldEqual, 1)
			})
		})

		Convey("When a fail-all parameter is triggered", func() {
			sub := chatSubmission("sub-2", 0)
			sub.Responses = evaluate.RawInput{"protocol_breach": 1}
			receipt, err := svc.SubmitAudit(ctx, sub)

			Convey("Then the verdict should not pass regardless of score", func() {
				So(err, ShouldBeNil)
				So(receipt.Result.Verdict, ShouldEqual, evaluate.VerdictNotPassing)
				So(receipt.Result.Errors.CriticalFail, ShouldEqual, 1)
			})
		})

		Convey("When retrying the same submission ID", func() {
			first, err := svc.SubmitAudit(ctx, chatSubmission("sub-3", 1))
			So(err, ShouldBeNil)
			second, err := svc.SubmitAudit(ctx, chatSubmission("sub-3", 1))

			Convey("Then the retry should be acknowledged without storing", func() {
				So(err, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.AuditID, ShouldBeEmpty)

				stats := svc.GetStats()
				So(stats["audits"], ShouldEqual, 1)
			})
		})

		Convey("When the submission has no submission ID", func() {
			sub := chatSubmission("", 1)
			_, err := svc.SubmitAudit(ctx, sub)
			So(err, ShouldBeNil)
			_, err = svc.SubmitAudit(ctx, sub)

			Convey("Then every submission is stored", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["audits"], ShouldEqual, 2)
			})
		})

		Convey("When the scorecard is unknown", func() {
			sub := chatSubmission("sub-4", 1)
			sub.ScorecardID = "missing-card"
			_, err := svc.SubmitAudit(ctx, sub)

			Convey("Then the submission should be rejected", func() {
				So(errors.Is(err, catalog.ErrScorecardNotFound), ShouldBeTrue)
			})
		})

		Convey("When the audit time is omitted", func() {
			sub := chatSubmission("sub-5", 0)
			sub.AuditedAt = time.Time{}
			receipt, err := svc.SubmitAudit(ctx, sub)

			Convey("Then submission time is used", func() {
				So(err, ShouldBeNil)
				So(receipt.Result.Quarter, ShouldEqual, period.Quarter(time.Now()))
			})
		})
	})
}

func TestService_EditAudit(t *testing.T) {
	Convey("Given a stored audit", t, func() {
		svc := startService(t)
		ctx := context.Background()
		receipt, err := svc.SubmitAudit(ctx, chatSubmission("sub-1", 4))
		So(err, ShouldBeNil)
		So(receipt.Result.Verdict, ShouldEqual, evaluate.VerdictNotPassing)

		Convey("When editing it with corrected responses", func() {
			edited, err := svc.EditAudit(ctx, receipt.AuditID, service.Submission{
				Responses: evaluate.RawInput{"lateness": 1},
				Feedback:  map[string]string{"lateness": "disputed, one late reply"},
			})

			Convey("Then the audit should be re-evaluated in place", func() {
				So(err, ShouldBeNil)
				So(edited.AuditID, ShouldEqual, receipt.AuditID)
				So(edited.Result.Score, ShouldEqual, 95)
				So(edited.Result.Verdict, ShouldEqual, evaluate.VerdictPassing)

				stats := svc.GetStats()
				So(stats["audits"], ShouldEqual, 1)
			})
		})

		Convey("When editing an unknown audit ID", func() {
			_, err := svc.EditAudit(ctx, "no-such-audit", service.Submission{
				Responses: evaluate.RawInput{"lateness": 1},
			})

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrAuditNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Report(t *testing.T) {
	Convey("Given audits across two channels", t, func() {
		svc := startService(t)
		ctx := context.Background()

		_, err := svc.SubmitAudit(ctx, chatSubmission("sub-1", 1))
		So(err, ShouldBeNil)
		_, err = svc.SubmitAudit(ctx, chatSubmission("sub-2", 4))
		So(err, ShouldBeNil)

		voice := service.Submission{
			SubmissionID:  "sub-3",
			ScorecardID:   "voice-quality",
			EmployeeEmail: "ben@example.com",
			AuditedAt:     time.Date(2025, 4, 9, 9, 0, 0, 0, time.UTC),
			Responses:     evaluate.RawInput{"hold_abuse": 2, "upsell": true},
		}
		_, err = svc.SubmitAudit(ctx, voice)
		So(err, ShouldBeNil)

		window := service.ReportQuery{
			Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		}

		Convey("When requesting an unfiltered report", func() {
			report, err := svc.Report(ctx, window)

			Convey("Then all tables should be aggregated", func() {
				So(err, ShouldBeNil)
				So(report.TotalAudits, ShouldEqual, 3)
				So(report.Partial, ShouldBeFalse)
				So(len(report.Individuals), ShouldEqual, 2)
			})
		})

		Convey("When filtering by table", func() {
			q := window
			q.Table = "chat_audits"
			report, err := svc.Report(ctx, q)

			Convey("Then only that table's audits should appear", func() {
				So(err, ShouldBeNil)
				So(report.TotalAudits, ShouldEqual, 2)
			})
		})

		Convey("When filtering by an unknown table", func() {
			q := window
			q.Table = "fax_audits"
			_, err := svc.Report(ctx, q)

			Convey("Then the query should be rejected", func() {
				So(errors.Is(err, service.ErrUnknownTable), ShouldBeTrue)
			})
		})

		Convey("When filtering by channel", func() {
			q := window
			q.Channel = "voice"
			report, err := svc.Report(ctx, q)

			Convey("Then only that channel's tables should appear", func() {
				So(err, ShouldBeNil)
				So(report.TotalAudits, ShouldEqual, 1)
			})
		})

		Convey("When filtering by an unknown channel", func() {
			q := window
			q.Channel = "carrier-pigeon"
			report, err := svc.Report(ctx, q)

			Convey("Then the report should be empty, not an error", func() {
				So(err, ShouldBeNil)
				So(report.TotalAudits, ShouldEqual, 0)
			})
		})

		Convey("When scoping to one employee", func() {
			q := window
			q.ScopeEmail = "Ana@Example.com"
			report, err := svc.Report(ctx, q)

			Convey("Then only that employee's audits should count", func() {
				So(err, ShouldBeNil)
				So(report.TotalAudits, ShouldEqual, 2)
				So(len(report.Individuals), ShouldEqual, 1)
			})
		})
	})
}

func TestService_ReportWindow(t *testing.T) {
	Convey("Given a service capped at 30 report days", t, func() {
		svc := startService(t, service.WithMaxReportDays(30))
		ctx := context.Background()

		Convey("When the end precedes the start", func() {
			_, err := svc.Report(ctx, service.ReportQuery{
				Start: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			})

			Convey("Then the window should be rejected", func() {
				So(errors.Is(err, service.ErrInvalidWindow), ShouldBeTrue)
			})
		})

		Convey("When the window exceeds the cap", func() {
			_, err := svc.Report(ctx, service.ReportQuery{
				Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			})

			Convey("Then the window should be rejected", func() {
				So(errors.Is(err, service.ErrWindowTooLarge), ShouldBeTrue)
			})
		})

		Convey("When no bounds are given", func() {
			_, err := svc.Report(ctx, service.ReportQuery{})

			Convey("Then the default window should be accepted", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_Scorecards(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When listing scorecards", func() {
			cards := svc.Scorecards(ctx)

			Convey("Then both fixtures should be present", func() {
				So(len(cards), ShouldEqual, 2)
				So(cards[0].ID, ShouldEqual, "chat-quality")
				So(cards[1].ID, ShouldEqual, "voice-quality")
			})
		})

		Convey("When looking up a single scorecard", func() {
			card, err := svc.Scorecard(ctx, "voice-quality")

			Convey("Then it should be returned", func() {
				So(err, ShouldBeNil)
				So(card.Table, ShouldEqual, "voice_audits")
			})
		})

		Convey("When looking up an unknown scorecard", func() {
			_, err := svc.Scorecard(ctx, "missing")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, catalog.ErrScorecardNotFound), ShouldBeTrue)
			})
		})
	})
}
