package cli

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/caliberhq/caliper/internal/adapters/repository"
	"github.com/caliberhq/caliper/internal/domain/roster"
)

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the caliper root command", t, func() {
		root := NewRootCommand()
		convey.So(root, convey.ShouldNotBeNil)
		convey.So(root.Use, convey.ShouldEqual, "caliper")

		convey.Convey("Then it should carry the serve, seed and migrate subcommands", func() {
			names := make(map[string]bool)
			for _, sub := range root.Commands() {
				names[sub.Name()] = true
			}
			convey.So(names["serve"], convey.ShouldBeTrue)
			convey.So(names["seed"], convey.ShouldBeTrue)
			convey.So(names["migrate"], convey.ShouldBeTrue)
		})

		convey.Convey("And it should expose the verbose flag", func() {
			flag := root.PersistentFlags().Lookup("verbose")
			convey.So(flag, convey.ShouldNotBeNil)
			convey.So(flag.Shorthand, convey.ShouldEqual, "v")
		})
	})
}

func TestSeedCommandFlags(t *testing.T) {
	convey.Convey("Given the seed command", t, func() {
		cmd := NewSeedCommand(&RootOptions{})

		convey.Convey("Then the defaults should target a local service", func() {
			convey.So(cmd.Flags().Lookup("url").DefValue, convey.ShouldEqual, "http://localhost:9080")
			convey.So(cmd.Flags().Lookup("audits").DefValue, convey.ShouldEqual, "500")
			convey.So(cmd.Flags().Lookup("duplicates").DefValue, convey.ShouldEqual, "10")
			convey.So(cmd.Flags().Lookup("window-days").DefValue, convey.ShouldEqual, "30")
		})
	})
}

func TestResolveMigrateTables(t *testing.T) {
	convey.Convey("Given a source store with two audit tables", t, func() {
		ctx := context.Background()
		src := seededStore(ctx, t)

		convey.Convey("When no subset is requested", func() {
			tables, err := resolveMigrateTables(ctx, src, "")

			convey.Convey("Then every source table is selected", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(tables, convey.ShouldResemble, []string{"chat_audits", "voice_audits"})
			})
		})

		convey.Convey("When a known subset is requested", func() {
			tables, err := resolveMigrateTables(ctx, src, " voice_audits ,")

			convey.Convey("Then only those tables are selected", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(tables, convey.ShouldResemble, []string{"voice_audits"})
			})
		})

		convey.Convey("When an unknown table is requested", func() {
			_, err := resolveMigrateTables(ctx, src, "email_audits")

			convey.Convey("Then resolution fails naming the table", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "email_audits")
			})
		})
	})
}

func TestMigrateCopy(t *testing.T) {
	convey.Convey("Given a populated source store and an empty destination", t, func() {
		ctx := context.Background()
		src := seededStore(ctx, t)
		dst := repository.NewMemoryStore()

		convey.Convey("When one table is migrated", func() {
			copied, skipped, err := migrateTable(ctx, src, dst, "chat_audits")

			convey.Convey("Then all rows are copied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(copied, convey.ShouldEqual, 2)
				convey.So(skipped, convey.ShouldEqual, 0)
				convey.So(dst.Count(ctx), convey.ShouldEqual, 2)
			})

			convey.Convey("And a rerun skips every row", func() {
				copied, skipped, err := migrateTable(ctx, src, dst, "chat_audits")
				convey.So(err, convey.ShouldBeNil)
				convey.So(copied, convey.ShouldEqual, 0)
				convey.So(skipped, convey.ShouldEqual, 2)
				convey.So(dst.Count(ctx), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the roster is migrated", func() {
			stats := &migrateStats{}
			err := migrateRoster(ctx, src, dst, stats)

			convey.Convey("Then the directory arrives in the destination", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.roster, convey.ShouldEqual, 1)

				dir, err := dst.Roster(ctx)
				convey.So(err, convey.ShouldBeNil)
				_, ok := dir.Lookup("ana.ortiz@example.com")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

// seededStore builds a memory store with two chat audits, one voice audit
// and a single roster entry.
func seededStore(ctx context.Context, t *testing.T) repository.Store {
	t.Helper()
	store := repository.NewMemoryStore()

	base := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	rows := []repository.Audit{
		{ID: "a1", Table: "chat_audits", ScorecardID: "chat-quality", EmployeeEmail: "ana.ortiz@example.com", Score: 90, Verdict: "Passing", Quarter: "Q2", Week: 15, AuditedAt: base},
		{ID: "a2", Table: "chat_audits", ScorecardID: "chat-quality", EmployeeEmail: "ana.ortiz@example.com", Score: 75, Verdict: "Not Passing", Quarter: "Q2", Week: 15, AuditedAt: base.Add(time.Hour)},
		{ID: "a3", Table: "voice_audits", ScorecardID: "voice-quality", EmployeeEmail: "ben.reyes@example.com", Score: 88, Verdict: "Passing", Quarter: "Q2", Week: 15, AuditedAt: base.Add(2 * time.Hour)},
	}
	for _, row := range rows {
		if err := store.SaveAudit(ctx, row); err != nil {
			t.Fatalf("seed audit %s: %v", row.ID, err)
		}
	}

	people := []roster.Person{{Email: "ana.ortiz@example.com", Name: "Ana Ortiz", Team: "Falcons", Role: "Agent"}}
	if err := store.UpsertRoster(ctx, people); err != nil {
		t.Fatalf("seed roster: %v", err)
	}
	return store
}
