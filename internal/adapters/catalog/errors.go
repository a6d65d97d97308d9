package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrScorecardNotFound  = errors.New("scorecard not found")
	ErrLoadCatalog        = errors.New("failed to load scorecard catalog")
	ErrNoScorecards       = errors.New("no scorecard definitions matched the glob")
	ErrDuplicateScorecard = errors.New("duplicate scorecard id")
	ErrInvalidScorecard   = errors.New("invalid scorecard definition")
	ErrInvalidRoster      = errors.New("invalid roster file")
	ErrSchema             = errors.New("catalog schema failed to compile")
)
