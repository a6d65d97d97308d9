package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caliberhq/caliper/internal/domain/roster"
	"github.com/caliberhq/caliper/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is a Store backed by an embedded SQLite database.
// SQLite allows a single writer, so the pool is capped at one connection;
// WAL mode keeps reads flowing while audits are written.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the audit database at the given path and
// applies pragmas and schema. Idempotent.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrOpenStore, pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: schema: %w", ErrOpenStore, err)
	}

	return &SQLiteStore{db: db}, nil
}

const auditColumns = `id, card_table, scorecard_id, employee_email, employee_name,
	interaction_id, auditor_email, channel, score, verdict, critical_fail,
	critical, significant, major, minor, total_errors, quarter, week,
	audited_at, feedback`

// SaveAudit stores a new audit row.
func (s *SQLiteStore) SaveAudit(ctx context.Context, a Audit) error {
	start := time.Now()

	feedback, err := encodeFeedback(a.Feedback)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("encode feedback: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO audits (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Table, a.ScorecardID, a.EmployeeEmail, a.EmployeeName,
		a.InteractionID, a.AuditorEmail, a.Channel, a.Score, a.Verdict,
		a.CriticalFail, a.Critical, a.Significant, a.Major, a.Minor,
		a.TotalErrors, a.Quarter, a.Week, formatTime(a.AuditedAt), feedback)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert audit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("insert audit: %w", err)
	}
	if affected == 0 {
		metrics.RecordStoreError()
		return fmt.Errorf("%w: %s", ErrDuplicateAudit, a.ID)
	}

	metrics.UpdateStoreAuditsTotal(s.Count(ctx))
	metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// ReplaceAudit overwrites a stored audit with a fresh evaluation.
func (s *SQLiteStore) ReplaceAudit(ctx context.Context, a Audit) error {
	start := time.Now()

	feedback, err := encodeFeedback(a.Feedback)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("encode feedback: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE audits SET
		card_table = ?, scorecard_id = ?, employee_email = ?, employee_name = ?,
		interaction_id = ?, auditor_email = ?, channel = ?, score = ?, verdict = ?,
		critical_fail = ?, critical = ?, significant = ?, major = ?, minor = ?,
		total_errors = ?, quarter = ?, week = ?, audited_at = ?, feedback = ?
		WHERE id = ?`,
		a.Table, a.ScorecardID, a.EmployeeEmail, a.EmployeeName,
		a.InteractionID, a.AuditorEmail, a.Channel, a.Score, a.Verdict,
		a.CriticalFail, a.Critical, a.Significant, a.Major, a.Minor,
		a.TotalErrors, a.Quarter, a.Week, formatTime(a.AuditedAt), feedback,
		a.ID)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("update audit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("update audit: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrAuditNotFound, a.ID)
	}

	metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// Audit returns the stored row with the given ID.
func (s *SQLiteStore) Audit(ctx context.Context, id string) (Audit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = ?`, id)

	a, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Audit{}, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	if err != nil {
		metrics.RecordStoreError()
		return Audit{}, fmt.Errorf("query audit: %w", err)
	}
	return a, nil
}

// ScanTable returns the audits of one logical table inside the window,
// ordered by audit time ascending, ID as the tiebreak.
func (s *SQLiteStore) ScanTable(ctx context.Context, table string, w Window) ([]Audit, error) {
	start := time.Now()

	query := `SELECT ` + auditColumns + ` FROM audits WHERE card_table = ?`
	args := []any{table}
	if !w.Start.IsZero() {
		query += ` AND audited_at >= ?`
		args = append(args, formatTime(w.Start))
	}
	if !w.End.IsZero() {
		query += ` AND audited_at <= ?`
		args = append(args, formatTime(w.End))
	}
	query += ` ORDER BY audited_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("scan table %s: %w", table, err)
	}
	defer rows.Close()

	var out []Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan table %s: %w", table, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("scan table %s: %w", table, err)
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// UpsertRoster inserts or replaces people keyed by normalized email.
func (s *SQLiteStore) UpsertRoster(ctx context.Context, people []roster.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert roster: %w", err)
	}
	defer tx.Rollback()

	for _, p := range people {
		key := roster.NormalizeEmail(p.Email)
		if key == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO roster
			(email, name, role, department, designation, team, supervisor, quality_mentor, channel)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				name = excluded.name,
				role = excluded.role,
				department = excluded.department,
				designation = excluded.designation,
				team = excluded.team,
				supervisor = excluded.supervisor,
				quality_mentor = excluded.quality_mentor,
				channel = excluded.channel`,
			key, p.Name, p.Role, p.Department, p.Designation, p.Team,
			p.Supervisor, p.QualityMentor, p.Channel); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("upsert roster entry %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert roster: %w", err)
	}

	var entries int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster`).Scan(&entries); err == nil {
		metrics.UpdateRosterEntries(entries)
	}
	return nil
}

// Roster returns the employee directory.
func (s *SQLiteStore) Roster(ctx context.Context) (*roster.Directory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, name, role, department,
		designation, team, supervisor, quality_mentor, channel FROM roster`)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var people []roster.Person
	for rows.Next() {
		var p roster.Person
		if err := rows.Scan(&p.Email, &p.Name, &p.Role, &p.Department,
			&p.Designation, &p.Team, &p.Supervisor, &p.QualityMentor, &p.Channel); err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query roster: %w", err)
	}

	return roster.NewDirectory(people), nil
}

// Count returns the number of stored audits.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Tables returns the distinct logical tables that hold rows, sorted.
func (s *SQLiteStore) Tables(ctx context.Context) []string {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT card_table FROM audits ORDER BY card_table`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return tables
		}
		tables = append(tables, t)
	}
	return tables
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(row scanner) (Audit, error) {
	var (
		a         Audit
		auditedAt string
		feedback  string
	)
	if err := row.Scan(&a.ID, &a.Table, &a.ScorecardID, &a.EmployeeEmail,
		&a.EmployeeName, &a.InteractionID, &a.AuditorEmail, &a.Channel,
		&a.Score, &a.Verdict, &a.CriticalFail, &a.Critical, &a.Significant,
		&a.Major, &a.Minor, &a.TotalErrors, &a.Quarter, &a.Week,
		&auditedAt, &feedback); err != nil {
		return Audit{}, err
	}

	t, err := time.Parse(time.RFC3339, auditedAt)
	if err != nil {
		return Audit{}, fmt.Errorf("parse audited_at %q: %w", auditedAt, err)
	}
	a.AuditedAt = t

	if feedback != "" && feedback != "{}" {
		if err := json.Unmarshal([]byte(feedback), &a.Feedback); err != nil {
			return Audit{}, fmt.Errorf("decode feedback: %w", err)
		}
	}

	return a, nil
}

// formatTime normalizes timestamps to second-precision RFC 3339 UTC so
// string comparison in SQL matches time comparison in Go.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func encodeFeedback(feedback map[string]string) (string, error) {
	if len(feedback) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(feedback)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
