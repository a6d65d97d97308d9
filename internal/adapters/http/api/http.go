// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/caliberhq/caliper/internal/adapters/catalog"
	"github.com/caliberhq/caliper/internal/adapters/repository"
	service "github.com/caliberhq/caliper/internal/app"
	"github.com/caliberhq/caliper/internal/domain/analytics"
	"github.com/caliberhq/caliper/internal/domain/evaluate"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// ScopeHeader carries the gateway-authenticated requester email for report
// scoping. Absent or empty means unrestricted access.
const ScopeHeader = "X-Scope-Email"

// Submission, Receipt and ReportQuery mirror the service-layer shapes the
// handlers pass through.
type (
	Submission  = service.Submission
	Receipt     = service.Receipt
	ReportQuery = service.ReportQuery
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitAudit(ctx context.Context, sub Submission) (Receipt, error)
	EditAudit(ctx context.Context, auditID string, sub Submission) (Receipt, error)
	Report(ctx context.Context, q ReportQuery) (analytics.Report, error)
	Scorecards(ctx context.Context) []scorecard.Scorecard
	Scorecard(ctx context.Context, id string) (scorecard.Scorecard, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	auditsHandler     *AuditsHandler
	reportsHandler    *ReportsHandler
	scorecardsHandler *ScorecardsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		auditsHandler:     NewAuditsHandler(deps),
		reportsHandler:    NewReportsHandler(deps),
		scorecardsHandler: NewScorecardsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/audits", MetricsMiddleware(s.auditsHandler.HandlePostAudit, "audits"))
	mux.HandleFunc("/audits/", MetricsMiddleware(s.auditsHandler.HandlePutAudit, "audit_edit"))
	mux.HandleFunc("/reports/performance", MetricsMiddleware(s.reportsHandler.HandleGetReport, "reports"))
	mux.HandleFunc("/scorecards", MetricsMiddleware(s.scorecardsHandler.HandleListScorecards, "scorecards"))
	mux.HandleFunc("/scorecards/", MetricsMiddleware(s.scorecardsHandler.HandleGetScorecard, "scorecard"))
}

// auditRequest mirrors the OpenAPI schema for POST /audits and
// PUT /audits/{id}.
type auditRequest struct {
	SubmissionID  string            `json:"submission_id"`
	ScorecardID   string            `json:"scorecard_id"`
	EmployeeEmail string            `json:"employee_email"`
	EmployeeName  string            `json:"employee_name"`
	InteractionID string            `json:"interaction_id"`
	AuditorEmail  string            `json:"auditor_email"`
	AuditedAt     string            `json:"audited_at"`
	Responses     map[string]any    `json:"responses"`
	Feedback      map[string]string `json:"feedback"`
}

func (a auditRequest) validate() error {
	switch {
	case strings.TrimSpace(a.ScorecardID) == "":
		return errors.New("missing scorecard_id")
	case strings.TrimSpace(a.EmployeeEmail) == "":
		return errors.New("missing employee_email")
	}
	return a.validateEdit()
}

// validateEdit skips the identity fields: on edits, empty values keep what
// is already stored.
func (a auditRequest) validateEdit() error {
	if a.AuditedAt != "" {
		if _, err := time.Parse(time.RFC3339, a.AuditedAt); err != nil {
			return errors.New("invalid audited_at; must be RFC3339")
		}
	}
	return nil
}

func (a auditRequest) toSubmission() Submission {
	at, _ := time.Parse(time.RFC3339, a.AuditedAt) // zero when absent
	return Submission{
		SubmissionID:  a.SubmissionID,
		ScorecardID:   a.ScorecardID,
		EmployeeEmail: a.EmployeeEmail,
		EmployeeName:  a.EmployeeName,
		InteractionID: a.InteractionID,
		AuditorEmail:  a.AuditorEmail,
		AuditedAt:     at,
		Responses:     evaluate.RawInput(a.Responses),
		Feedback:      a.Feedback,
	}
}

// receiptResponse mirrors the OpenAPI schema for audit acknowledgements.
type receiptResponse struct {
	Status    string         `json:"status"`
	Duplicate bool           `json:"duplicate"`
	AuditID   string         `json:"audit_id,omitempty"`
	Result    *resultPayload `json:"result,omitempty"`
}

// resultPayload flattens an evaluation result for the wire.
type resultPayload struct {
	Score        float64 `json:"score"`
	Verdict      string  `json:"verdict"`
	CriticalFail int     `json:"critical_fail_errors"`
	Critical     int     `json:"critical_errors"`
	Significant  int     `json:"significant_errors"`
	Major        int     `json:"major_errors"`
	Minor        int     `json:"minor_errors"`
	TotalErrors  int     `json:"total_errors"`
	Quarter      string  `json:"quarter"`
	Week         int     `json:"week"`
}

func toResultPayload(r evaluate.Result) *resultPayload {
	return &resultPayload{
		Score:        r.Score,
		Verdict:      string(r.Verdict),
		CriticalFail: r.Errors.CriticalFail,
		Critical:     r.Errors.Critical,
		Significant:  r.Errors.Significant,
		Major:        r.Errors.Major,
		Minor:        r.Errors.Minor,
		TotalErrors:  r.Errors.Total,
		Quarter:      r.Quarter,
		Week:         r.Week,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound reports whether err names something the API maps to 404.
func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrScorecardNotFound) ||
		errors.Is(err, repository.ErrAuditNotFound) ||
		errors.Is(err, service.ErrUnknownTable)
}

// isBadRequest reports whether err is a rejected query the caller can fix.
func isBadRequest(err error) bool {
	return errors.Is(err, service.ErrInvalidWindow) ||
		errors.Is(err, service.ErrWindowTooLarge)
}
