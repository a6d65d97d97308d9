package repository

import "errors"

// Sentinel kinds for audit store errors.
var (
	ErrAuditNotFound  = errors.New("audit not found")
	ErrDuplicateAudit = errors.New("audit id already stored")
	ErrOpenStore      = errors.New("failed to open audit store")
)
