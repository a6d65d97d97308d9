// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caliberhq/caliper/internal/domain/analytics"
)

// ReportDependencies defines the interface for report queries.
type ReportDependencies interface {
	Report(ctx context.Context, q ReportQuery) (analytics.Report, error)
}

// ReportsHandler handles performance report requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGetReport handles GET /reports/performance requests.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.Report(r.Context(), q)
	if err != nil {
		switch {
		case isBadRequest(err):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// parseReportQuery reads the filter window from query parameters and the
// access scope from the gateway header.
func parseReportQuery(r *http.Request) (ReportQuery, error) {
	q := ReportQuery{
		Table:      r.URL.Query().Get("table"),
		Channel:    r.URL.Query().Get("channel"),
		ScopeEmail: r.Header.Get(ScopeHeader),
	}
	var err error
	if q.Start, err = parseTimeParam(r.URL.Query().Get("start")); err != nil {
		return ReportQuery{}, err
	}
	if q.End, err = parseTimeParam(r.URL.Query().Get("end")); err != nil {
		return ReportQuery{}, err
	}
	return q, nil
}

// parseTimeParam accepts RFC3339 timestamps or bare dates; empty means the
// bound is unset and the service applies its default window.
func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q; must be RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
