// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// ScorecardDependencies defines the interface for scorecard reads.
type ScorecardDependencies interface {
	Scorecards(ctx context.Context) []scorecard.Scorecard
	Scorecard(ctx context.Context, id string) (scorecard.Scorecard, error)
}

// ScorecardsHandler handles scorecard catalog requests.
type ScorecardsHandler struct {
	deps ScorecardDependencies
}

// NewScorecardsHandler creates a new scorecards handler.
func NewScorecardsHandler(deps ScorecardDependencies) *ScorecardsHandler {
	return &ScorecardsHandler{deps: deps}
}

// HandleListScorecards handles GET /scorecards requests.
func (h *ScorecardsHandler) HandleListScorecards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cards := h.deps.Scorecards(r.Context())
	out := make([]scorecardPayload, 0, len(cards))
	for _, card := range cards {
		out = append(out, toScorecardPayload(card))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetScorecard handles GET /scorecards/{id} requests.
func (h *ScorecardsHandler) HandleGetScorecard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scorecard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /scorecards/
	id := strings.TrimPrefix(r.URL.Path, "/scorecards/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	card, err := h.deps.Scorecard(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toScorecardPayload(card))
}

// scorecardPayload mirrors the wire shape of a scorecard definition. Only
// active parameters are served, in display order.
type scorecardPayload struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Table            string             `json:"table"`
	Channel          string             `json:"channel,omitempty"`
	Policy           string             `json:"policy"`
	PassingThreshold float64            `json:"passing_threshold"`
	AllowOver100     bool               `json:"allow_over_100,omitempty"`
	MaxBonusPoints   float64            `json:"max_bonus_points,omitempty"`
	Parameters       []parameterPayload `json:"parameters"`
}

type parameterPayload struct {
	FieldID       string  `json:"field_id"`
	Label         string  `json:"label"`
	Kind          string  `json:"kind"`
	Direction     string  `json:"direction,omitempty"`
	FieldType     string  `json:"field_type"`
	Points        float64 `json:"points"`
	ErrorCategory string  `json:"error_category,omitempty"`
	FailAll       bool    `json:"fail_all,omitempty"`
	Order         int     `json:"order"`
}

func toScorecardPayload(card scorecard.Scorecard) scorecardPayload {
	active := card.ActiveParameters()
	params := make([]parameterPayload, 0, len(active))
	for _, p := range active {
		params = append(params, parameterPayload{
			FieldID:       p.FieldID,
			Label:         p.Label,
			Kind:          string(p.Kind),
			Direction:     string(p.Direction),
			FieldType:     string(p.FieldType),
			Points:        p.Points,
			ErrorCategory: p.ErrorCategory,
			FailAll:       p.FailAll,
			Order:         p.Order,
		})
	}
	return scorecardPayload{
		ID:               card.ID,
		Name:             card.Name,
		Table:            card.Table,
		Channel:          card.Channel,
		Policy:           string(card.Policy),
		PassingThreshold: card.PassingThreshold,
		AllowOver100:     card.AllowOver100,
		MaxBonusPoints:   card.MaxBonusPoints,
		Parameters:       params,
	}
}
