package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/caliberhq/caliper/internal/adapters/repository"
	"github.com/caliberhq/caliper/internal/domain/roster"
)

func setupSQLite(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audits.db")
	s, err := repository.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audits.db")

	s, err := repository.OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should exist")
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audits.db")

	for i := 0; i < 3; i++ {
		s, err := repository.OpenSQLite(path)
		require.NoError(t, err, "open iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestSQLiteSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	audit := sampleAudit("a-1", "chat_audits", at)
	require.NoError(t, s.SaveAudit(ctx, audit))

	got, err := s.Audit(ctx, "a-1")
	require.NoError(t, err)

	assert.Equal(t, audit.ID, got.ID)
	assert.Equal(t, audit.Table, got.Table)
	assert.Equal(t, audit.ScorecardID, got.ScorecardID)
	assert.Equal(t, audit.EmployeeEmail, got.EmployeeEmail)
	assert.Equal(t, audit.Score, got.Score)
	assert.Equal(t, audit.Verdict, got.Verdict)
	assert.Equal(t, audit.Significant, got.Significant)
	assert.Equal(t, audit.TotalErrors, got.TotalErrors)
	assert.Equal(t, audit.Quarter, got.Quarter)
	assert.Equal(t, audit.Week, got.Week)
	assert.True(t, got.AuditedAt.Equal(at), "audited_at should round-trip")
	assert.Equal(t, audit.Feedback, got.Feedback)
}

func TestSQLiteDuplicateSave(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("a-1", "chat_audits", at)))

	err := s.SaveAudit(ctx, sampleAudit("a-1", "chat_audits", at))
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateAudit)
	assert.Equal(t, 1, s.Count(ctx))
}

func TestSQLiteAuditNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	_, err := s.Audit(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrAuditNotFound)
}

func TestSQLiteReplaceAudit(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("a-1", "chat_audits", at)))

	updated := sampleAudit("a-1", "chat_audits", at)
	updated.Score = 55
	updated.Verdict = "Not Passing"
	updated.CriticalFail = 1
	updated.Feedback = map[string]string{"lateness": "ignored the customer entirely"}
	require.NoError(t, s.ReplaceAudit(ctx, updated))

	got, err := s.Audit(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 55.0, got.Score)
	assert.Equal(t, "Not Passing", got.Verdict)
	assert.Equal(t, 1, got.CriticalFail)
	assert.Equal(t, "ignored the customer entirely", got.Feedback["lateness"])
	assert.Equal(t, 1, s.Count(ctx))
}

func TestSQLiteReplaceUnknownAudit(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	err := s.ReplaceAudit(ctx, sampleAudit("ghost", "chat_audits", at))
	assert.ErrorIs(t, err, repository.ErrAuditNotFound)
}

func TestSQLiteScanTableWindow(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	base := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("late", "chat_audits", base.Add(2*time.Hour))))
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("early", "chat_audits", base)))
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("middle", "chat_audits", base.Add(time.Hour))))
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("other", "voice_audits", base)))

	rows, err := s.ScanTable(ctx, "chat_audits", repository.Window{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "early", rows[0].ID)
	assert.Equal(t, "middle", rows[1].ID)
	assert.Equal(t, "late", rows[2].ID)

	rows, err = s.ScanTable(ctx, "chat_audits", repository.Window{
		Start: base.Add(30 * time.Minute),
		End:   base.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "middle", rows[0].ID)

	// Inclusive bounds.
	rows, err = s.ScanTable(ctx, "chat_audits", repository.Window{
		Start: base,
		End:   base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = s.ScanTable(ctx, "email_audits", repository.Window{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Equal(t, []string{"chat_audits", "voice_audits"}, s.Tables(ctx))
}

func TestSQLiteRoster(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	err := s.UpsertRoster(ctx, []roster.Person{
		{Email: "Ana@Example.com", Name: "Ana Flores", Team: "Tier 1", Supervisor: "Maya Patel"},
		{Email: "ben@example.com", Name: "Ben Ortiz", Team: "Tier 2"},
	})
	require.NoError(t, err)

	dir, err := s.Roster(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, dir.Len())

	p, ok := dir.Lookup("ana@example.com")
	require.True(t, ok, "normalized email should resolve")
	assert.Equal(t, "Ana Flores", p.Name)
	assert.Equal(t, "Maya Patel", p.Supervisor)

	// Re-upserting replaces the row.
	require.NoError(t, s.UpsertRoster(ctx, []roster.Person{
		{Email: "ana@example.com", Name: "Ana Flores", Team: "Tier 3"},
	}))

	dir, err = s.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dir.Len())

	p, ok = dir.Lookup("ana@example.com")
	require.True(t, ok)
	assert.Equal(t, "Tier 3", p.Team)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audits.db")

	s1, err := repository.OpenSQLite(path)
	require.NoError(t, err)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s1.SaveAudit(ctx, sampleAudit("a-1", "chat_audits", at)))
	require.NoError(t, s1.UpsertRoster(ctx, []roster.Person{{Email: "ana@example.com", Name: "Ana Flores"}}))
	require.NoError(t, s1.Close())

	s2, err := repository.OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Audit(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "chat_audits", got.Table)

	dir, err := s2.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dir.Len())
}

func TestSQLiteEmptyFeedbackRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupSQLite(t)

	at := time.Date(2025, 4, 7, 10, 30, 0, 0, time.UTC)
	audit := sampleAudit("bare", "chat_audits", at)
	audit.Feedback = nil
	require.NoError(t, s.SaveAudit(ctx, audit))

	got, err := s.Audit(ctx, "bare")
	require.NoError(t, err)
	assert.Nil(t, got.Feedback)
}
