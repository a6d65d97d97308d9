// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// AuditDependencies defines the interface for audit write operations.
type AuditDependencies interface {
	SubmitAudit(ctx context.Context, sub Submission) (Receipt, error)
	EditAudit(ctx context.Context, auditID string, sub Submission) (Receipt, error)
}

// AuditsHandler handles audit submissions and edits.
type AuditsHandler struct {
	deps AuditDependencies
}

// NewAuditsHandler creates a new audits handler.
func NewAuditsHandler(deps AuditDependencies) *AuditsHandler {
	return &AuditsHandler{deps: deps}
}

// HandlePostAudit handles POST /audits requests.
func (h *AuditsHandler) HandlePostAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_audit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.SubmitAudit(r.Context(), req.toSubmission())
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	// Retried submissions are acknowledged, never stored twice.
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, receiptResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, receiptResponse{
		Status:  "stored",
		AuditID: receipt.AuditID,
		Result:  toResultPayload(receipt.Result),
	})
}

// HandlePutAudit handles PUT /audits/{id} requests. An edit re-evaluates
// the audit and overwrites the stored row in place.
func (h *AuditsHandler) HandlePutAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_audit"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /audits/
	id := strings.TrimPrefix(r.URL.Path, "/audits/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validateEdit(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.EditAudit(r.Context(), id, req.toSubmission())
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{
		Status:  "updated",
		AuditID: receipt.AuditID,
		Result:  toResultPayload(receipt.Result),
	})
}
