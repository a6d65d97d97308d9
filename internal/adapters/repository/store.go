// Package repository defines the audit store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/caliberhq/caliper/internal/domain/roster"
)

// Audit is one stored evaluation row. The evaluation outcome is flattened
// onto the row so reports never have to re-run the scoring engine.
type Audit struct {
	ID            string
	Table         string
	ScorecardID   string
	EmployeeEmail string
	EmployeeName  string
	InteractionID string
	AuditorEmail  string
	Channel       string

	Score        float64
	Verdict      string
	CriticalFail int
	Critical     int
	Significant  int
	Major        int
	Minor        int
	TotalErrors  int
	Quarter      string
	Week         int

	AuditedAt time.Time
	// Feedback keeps the auditor's free-text remarks keyed by parameter
	// field ID, the join key error frequency reporting relies on.
	Feedback map[string]string
}

// Window bounds a table scan by audit time. Zero bounds are open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Store provides read/write access to stored audits and the roster.
type Store interface {
	// SaveAudit stores a new audit row. The caller assigns the ID.
	// Returns ErrDuplicateAudit if the ID is already stored.
	SaveAudit(ctx context.Context, a Audit) error

	// ReplaceAudit overwrites a stored audit with a fresh evaluation.
	// Returns ErrAuditNotFound when the ID is unknown.
	ReplaceAudit(ctx context.Context, a Audit) error

	// Audit returns the stored row with the given ID.
	// Returns ErrAuditNotFound when the ID is unknown.
	Audit(ctx context.Context, id string) (Audit, error)

	// ScanTable returns the audits of one logical table inside the window,
	// ordered by audit time ascending.
	ScanTable(ctx context.Context, table string, w Window) ([]Audit, error)

	// UpsertRoster inserts or replaces people keyed by normalized email.
	UpsertRoster(ctx context.Context, people []roster.Person) error

	// Roster returns the employee directory.
	Roster(ctx context.Context) (*roster.Directory, error)

	// Count returns the number of stored audits.
	Count(ctx context.Context) int

	// Tables returns the distinct logical tables that hold rows, sorted.
	Tables(ctx context.Context) []string

	// Close releases underlying resources.
	Close() error
}
