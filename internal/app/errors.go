package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidWindow  = errors.New("report window end precedes start")
	ErrWindowTooLarge = errors.New("report window exceeds the configured maximum")
	ErrUnknownTable   = errors.New("unknown audit table")
)
