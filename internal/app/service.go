// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caliberhq/caliper/internal/adapters/catalog"
	"github.com/caliberhq/caliper/internal/adapters/fetch"
	"github.com/caliberhq/caliper/internal/adapters/repository"
	"github.com/caliberhq/caliper/internal/config"
	"github.com/caliberhq/caliper/internal/domain/analytics"
	"github.com/caliberhq/caliper/internal/domain/dedupe"
	"github.com/caliberhq/caliper/internal/domain/evaluate"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
	"github.com/caliberhq/caliper/pkg/logger"
	"github.com/caliberhq/caliper/pkg/metrics"
)

// Submission is one incoming audit to evaluate and store.
type Submission struct {
	SubmissionID  string
	ScorecardID   string
	EmployeeEmail string
	EmployeeName  string
	InteractionID string
	AuditorEmail  string
	AuditedAt     time.Time
	Responses     evaluate.RawInput
	Feedback      map[string]string
}

// Receipt reports the outcome of a stored submission.
type Receipt struct {
	AuditID   string
	Duplicate bool
	Result    evaluate.Result
}

// ReportQuery bounds and scopes a performance report.
type ReportQuery struct {
	Start      time.Time
	End        time.Time
	Table      string // optional: restrict to one logical table
	Channel    string // optional: restrict to scorecards of one channel
	ScopeEmail string // access scope; empty means org-wide
}

// Service implements the API dependencies for the audit system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	catalog catalog.Catalog
	guard   dedupe.Guard
	pool    *fetch.Pool

	// Configuration
	storeKind     string
	dbPath        string
	scorecardGlob string
	rosterPath    string
	fetchWorkers  int
	dedupeSize    int
	maxReportDays int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStoreKind selects the audit store backend (memory or sqlite).
func WithStoreKind(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
	}
}

// WithDBPath sets the SQLite database path.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithScorecardGlob sets the pattern used to discover scorecard files.
func WithScorecardGlob(glob string) Option {
	return func(s *Service) {
		if glob != "" {
			s.scorecardGlob = glob
		}
	}
}

// WithRosterPath sets an optional roster file loaded into the store at start.
func WithRosterPath(path string) Option {
	return func(s *Service) {
		s.rosterPath = path
	}
}

// WithFetchWorkers bounds report scan concurrency.
func WithFetchWorkers(workers int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.fetchWorkers = workers
		}
	}
}

// WithDedupeSize sets the size of the submission dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxReportDays caps the report window span in days.
func WithMaxReportDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxReportDays = days
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeKind:     config.StoreMemory,
		dbPath:        "caliper.db",
		scorecardGlob: "scorecards/*.yaml",
		fetchWorkers:  runtime.NumCPU(),
		dedupeSize:    100_000,
		maxReportDays: 366,
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting audit service...")

	fileCatalog, err := catalog.NewFileCatalog(catalog.WithGlob(s.scorecardGlob))
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := fileCatalog.Load(ctx); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	s.catalog = fileCatalog

	switch s.storeKind {
	case config.StoreSQLite:
		store, err := repository.OpenSQLite(s.dbPath)
		if err != nil {
			return err
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	default:
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	if s.rosterPath != "" {
		people, err := catalog.LoadRoster(s.rosterPath)
		if err != nil {
			s.closeStore(ctx)
			return fmt.Errorf("roster: %w", err)
		}
		if err := s.store.UpsertRoster(ctx, people); err != nil {
			s.closeStore(ctx)
			return fmt.Errorf("roster: %w", err)
		}
		s.logger.Info(ctx, "roster loaded",
			logger.String("path", s.rosterPath),
			logger.Int("people", len(people)))
	}

	s.guard = dedupe.NewInMemoryGuard(
		dedupe.WithMaxEntries(s.dedupeSize),
	)
	s.pool = fetch.NewPool(s.store, fetch.WithWorkers(s.fetchWorkers))

	s.started = true
	s.logger.Info(ctx, "audit service started",
		logger.Int("scorecards", s.catalog.Count(ctx)),
		logger.Int("fetchWorkers", s.fetchWorkers),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping audit service...")
	s.closeStore(ctx)
	s.started = false
	s.logger.Info(ctx, "audit service stopped")
}

func (s *Service) closeStore(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
}

// SubmitAudit evaluates a submission against its scorecard and stores the
// result. Retried submissions with a known submission ID are acknowledged
// as duplicates without touching the store.
func (s *Service) SubmitAudit(ctx context.Context, sub Submission) (Receipt, error) {
	start := time.Now()

	card, err := s.catalog.Scorecard(ctx, sub.ScorecardID)
	if err != nil {
		return Receipt{}, err
	}

	if sub.SubmissionID != "" && s.guard.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordAuditDuplicate()
		s.logger.Debug(ctx, "duplicate submission acknowledged",
			logger.String("submissionID", sub.SubmissionID))
		return Receipt{Duplicate: true}, nil
	}

	at := sub.AuditedAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC().Truncate(time.Second)

	result := evaluate.Evaluate(card, sub.Responses, at)
	s.reportWarnings(ctx, result.Warnings)

	audit := buildAudit(uuid.NewString(), card, sub, at, result)
	if err := s.store.SaveAudit(ctx, audit); err != nil {
		if sub.SubmissionID != "" {
			s.guard.Unrecord(ctx, sub.SubmissionID)
		}
		return Receipt{}, err
	}

	metrics.RecordAuditEvaluated()
	metrics.RecordVerdict(string(result.Verdict))
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))

	return Receipt{AuditID: audit.ID, Result: result}, nil
}

// EditAudit re-evaluates a stored audit with updated responses and
// overwrites it in place. Fields left empty on the submission keep the
// stored values; responses and feedback are replaced wholesale.
func (s *Service) EditAudit(ctx context.Context, auditID string, sub Submission) (Receipt, error) {
	start := time.Now()

	existing, err := s.store.Audit(ctx, auditID)
	if err != nil {
		return Receipt{}, err
	}

	if sub.ScorecardID == "" {
		sub.ScorecardID = existing.ScorecardID
	}
	card, err := s.catalog.Scorecard(ctx, sub.ScorecardID)
	if err != nil {
		return Receipt{}, err
	}

	if sub.EmployeeEmail == "" {
		sub.EmployeeEmail = existing.EmployeeEmail
	}
	if sub.EmployeeName == "" {
		sub.EmployeeName = existing.EmployeeName
	}
	if sub.InteractionID == "" {
		sub.InteractionID = existing.InteractionID
	}
	if sub.AuditorEmail == "" {
		sub.AuditorEmail = existing.AuditorEmail
	}

	at := sub.AuditedAt
	if at.IsZero() {
		at = existing.AuditedAt
	}
	at = at.UTC().Truncate(time.Second)

	result := evaluate.Evaluate(card, sub.Responses, at)
	s.reportWarnings(ctx, result.Warnings)

	audit := buildAudit(auditID, card, sub, at, result)
	if err := s.store.ReplaceAudit(ctx, audit); err != nil {
		return Receipt{}, err
	}

	metrics.RecordAuditEvaluated()
	metrics.RecordVerdict(string(result.Verdict))
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))

	return Receipt{AuditID: auditID, Result: result}, nil
}

// Report scans the requested tables and aggregates them into a
// performance report.
func (s *Service) Report(ctx context.Context, q ReportQuery) (analytics.Report, error) {
	start := time.Now()

	window, err := s.resolveWindow(q)
	if err != nil {
		return analytics.Report{}, err
	}

	tables, err := s.resolveTables(ctx, q)
	if err != nil {
		return analytics.Report{}, err
	}

	rows, failedTables, err := s.pool.Fetch(ctx, tables, window)
	if err != nil {
		return analytics.Report{}, err
	}

	directory, err := s.store.Roster(ctx)
	if err != nil {
		return analytics.Report{}, err
	}

	report := analytics.Build(analytics.Input{
		Rows:         toAnalyticsRows(rows),
		Roster:       directory,
		Scorecards:   s.catalog.Scorecards(ctx),
		ScopeEmail:   q.ScopeEmail,
		FailedTables: failedTables,
	})

	metrics.RecordReportRequest()
	if report.Partial {
		metrics.RecordReportPartial()
	}
	metrics.RecordReportLatency(float64(time.Since(start).Milliseconds()))

	return report, nil
}

// resolveWindow applies defaults and enforces the span cap. A missing end
// means now; a missing start means the configured maximum span back.
func (s *Service) resolveWindow(q ReportQuery) (repository.Window, error) {
	end := q.End
	if end.IsZero() {
		end = time.Now().UTC()
	}

	start := q.Start
	if start.IsZero() {
		start = end.AddDate(0, 0, -s.maxReportDays)
	}

	if end.Before(start) {
		return repository.Window{}, fmt.Errorf("%w: %s before %s",
			ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if end.Sub(start) > time.Duration(s.maxReportDays)*24*time.Hour {
		return repository.Window{}, fmt.Errorf("%w: %d days allowed",
			ErrWindowTooLarge, s.maxReportDays)
	}

	return repository.Window{Start: start, End: end}, nil
}

// resolveTables picks the logical tables a report query covers. A table
// filter must name a known table; a channel filter narrows to the tables
// of that channel's scorecards and may legitimately match nothing.
func (s *Service) resolveTables(ctx context.Context, q ReportQuery) ([]string, error) {
	if q.Table != "" {
		for _, table := range s.catalog.Tables(ctx) {
			if table == q.Table {
				return []string{q.Table}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}

	if q.Channel != "" {
		seen := make(map[string]struct{})
		var tables []string
		for _, card := range s.catalog.Scorecards(ctx) {
			if card.Channel != q.Channel {
				continue
			}
			if _, ok := seen[card.Table]; ok {
				continue
			}
			seen[card.Table] = struct{}{}
			tables = append(tables, card.Table)
		}
		return tables, nil
	}

	return s.catalog.Tables(ctx), nil
}

// Scorecards returns every loaded scorecard definition.
func (s *Service) Scorecards(ctx context.Context) []scorecard.Scorecard {
	return s.catalog.Scorecards(ctx)
}

// Scorecard returns one scorecard definition by ID.
func (s *Service) Scorecard(ctx context.Context, id string) (scorecard.Scorecard, error) {
	return s.catalog.Scorecard(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"store":         s.storeKind,
		"fetchWorkers":  s.fetchWorkers,
		"dedupeSize":    s.dedupeSize,
		"maxReportDays": s.maxReportDays,
	}

	if s.started {
		ctx := context.Background()
		directory, err := s.store.Roster(ctx)
		rosterLen := 0
		if err == nil {
			rosterLen = directory.Len()
		}

		stats["audits"] = s.store.Count(ctx)
		stats["tables"] = s.store.Tables(ctx)
		stats["scorecards"] = s.catalog.Count(ctx)
		stats["rosterEntries"] = rosterLen
		stats["trackedSubmissions"] = s.guard.Size()
	}

	return stats
}

func (s *Service) reportWarnings(ctx context.Context, warnings []string) {
	for _, warning := range warnings {
		metrics.RecordScoringWarning()
		s.logger.Warn(ctx, warning)
	}
}

func buildAudit(id string, card scorecard.Scorecard, sub Submission, at time.Time, result evaluate.Result) repository.Audit {
	return repository.Audit{
		ID:            id,
		Table:         card.Table,
		ScorecardID:   card.ID,
		EmployeeEmail: sub.EmployeeEmail,
		EmployeeName:  sub.EmployeeName,
		InteractionID: sub.InteractionID,
		AuditorEmail:  sub.AuditorEmail,
		Channel:       card.Channel,
		Score:         result.Score,
		Verdict:       string(result.Verdict),
		CriticalFail:  result.Errors.CriticalFail,
		Critical:      result.Errors.Critical,
		Significant:   result.Errors.Significant,
		Major:         result.Errors.Major,
		Minor:         result.Errors.Minor,
		TotalErrors:   result.Errors.Total,
		Quarter:       result.Quarter,
		Week:          result.Week,
		AuditedAt:     at,
		Feedback:      sub.Feedback,
	}
}

func toAnalyticsRows(audits []repository.Audit) []analytics.Row {
	rows := make([]analytics.Row, len(audits))
	for i, a := range audits {
		rows[i] = analytics.Row{
			Table:         a.Table,
			EmployeeEmail: a.EmployeeEmail,
			Score:         a.Score,
			Passed:        a.Verdict == string(evaluate.VerdictPassing),
			TotalErrors:   a.TotalErrors,
			Week:          a.Week,
			Feedback:      a.Feedback,
		}
	}
	return rows
}
