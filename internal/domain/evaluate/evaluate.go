// Package evaluate is the scorecard evaluation engine: it resolves raw
// operator input against parameter definitions, scores it under the card's
// policy, classifies error severities, decides the pass/fail verdict, and
// stamps the reporting period. Every step is pure computation; persistence
// belongs to the adapters.
package evaluate

import (
	"fmt"
	"time"

	"github.com/caliberhq/caliper/internal/domain/period"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// Result is the immutable outcome of evaluating one audit submission.
// Warnings carry non-fatal conditions (an unknown policy scored as
// deductive) for the caller to log; they never block the evaluation.
type Result struct {
	Score    float64
	Verdict  Verdict
	Errors   Counts
	Quarter  string
	Week     int
	Warnings []string
}

// Evaluate runs the full engine for one submission at the given audit time.
// It never returns an error: malformed input degrades per the resolver
// contract and unknown policies fall back to deductive, so the operator
// always gets a score and a verdict.
func Evaluate(card scorecard.Scorecard, in RawInput, at time.Time) Result {
	active := card.ActiveParameters()
	pairs := make([]Pair, 0, len(active))
	for _, p := range active {
		pairs = append(pairs, Pair{Param: p, Value: Resolve(p, in)})
	}
	return evaluatePairs(card, pairs, at)
}

// EvaluatePairs scores pre-resolved pairs, bypassing raw-input resolution.
func EvaluatePairs(card scorecard.Scorecard, pairs []Pair, at time.Time) Result {
	return evaluatePairs(card, pairs, at)
}

func evaluatePairs(card scorecard.Scorecard, pairs []Pair, at time.Time) Result {
	var warnings []string
	if !card.Policy.Known() {
		warnings = append(warnings,
			fmt.Sprintf("unknown scoring policy %q on scorecard %q, scored as deductive", string(card.Policy), card.ID))
	}

	score := Score(card, pairs)
	counts := Classify(pairs)
	verdict := Decide(score, card.PassingThreshold, pairs)

	return Result{
		Score:    score,
		Verdict:  verdict,
		Errors:   counts,
		Quarter:  period.Quarter(at),
		Week:     period.Week(at),
		Warnings: warnings,
	}
}
