package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/caliberhq/caliper/internal/domain/roster"
	"github.com/caliberhq/caliper/pkg/metrics"
)

// MemoryStore is an in-process Store. Rows are copied on the way in and
// out so callers can never alias stored state through a returned Audit.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Audit
	tables map[string][]string // logical table -> audit IDs in insertion order
	people map[string]roster.Person
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Audit),
		tables: make(map[string][]string),
		people: make(map[string]roster.Person),
	}
}

// SaveAudit stores a new audit row.
func (s *MemoryStore) SaveAudit(_ context.Context, a Audit) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID]; ok {
		metrics.RecordStoreError()
		return fmt.Errorf("%w: %s", ErrDuplicateAudit, a.ID)
	}

	s.byID[a.ID] = cloneAudit(a)
	s.tables[a.Table] = append(s.tables[a.Table], a.ID)

	metrics.UpdateStoreAuditsTotal(len(s.byID))
	metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// ReplaceAudit overwrites a stored audit with a fresh evaluation.
func (s *MemoryStore) ReplaceAudit(_ context.Context, a Audit) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[a.ID]
	if !ok {
		metrics.RecordStoreError()
		return fmt.Errorf("%w: %s", ErrAuditNotFound, a.ID)
	}

	if old.Table != a.Table {
		s.tables[old.Table] = removeID(s.tables[old.Table], a.ID)
		if len(s.tables[old.Table]) == 0 {
			delete(s.tables, old.Table)
		}
		s.tables[a.Table] = append(s.tables[a.Table], a.ID)
	}
	s.byID[a.ID] = cloneAudit(a)

	metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// Audit returns the stored row with the given ID.
func (s *MemoryStore) Audit(_ context.Context, id string) (Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return Audit{}, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	return cloneAudit(a), nil
}

// ScanTable returns the audits of one logical table inside the window,
// ordered by audit time ascending, ID as the tiebreak.
func (s *MemoryStore) ScanTable(_ context.Context, table string, w Window) ([]Audit, error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.tables[table]
	out := make([]Audit, 0, len(ids))
	for _, id := range ids {
		a := s.byID[id]
		if !w.Contains(a.AuditedAt) {
			continue
		}
		out = append(out, cloneAudit(a))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AuditedAt.Equal(out[j].AuditedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AuditedAt.Before(out[j].AuditedAt)
	})

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// UpsertRoster inserts or replaces people keyed by normalized email.
func (s *MemoryStore) UpsertRoster(_ context.Context, people []roster.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range people {
		key := roster.NormalizeEmail(p.Email)
		if key == "" {
			continue
		}
		s.people[key] = p
	}

	metrics.UpdateRosterEntries(len(s.people))
	return nil
}

// Roster returns the employee directory.
func (s *MemoryStore) Roster(_ context.Context) (*roster.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]roster.Person, 0, len(s.people))
	for _, p := range s.people {
		people = append(people, p)
	}
	return roster.NewDirectory(people), nil
}

// Count returns the number of stored audits.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Tables returns the distinct logical tables that hold rows, sorted.
func (s *MemoryStore) Tables(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]string, 0, len(s.tables))
	for table := range s.tables {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneAudit(a Audit) Audit {
	out := a
	if a.Feedback != nil {
		out.Feedback = make(map[string]string, len(a.Feedback))
		for k, v := range a.Feedback {
			out.Feedback[k] = v
		}
	}
	return out
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
