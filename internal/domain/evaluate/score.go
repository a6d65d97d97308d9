package evaluate

import (
	"math"

	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// Scores live on a 0-100 scale unless a hybrid card allows overshoot.
const maxScore = 100.0

// Pair binds a parameter definition to its resolved value for one evaluation.
type Pair struct {
	Param scorecard.Parameter
	Value float64
}

// Score computes the card's score over resolved parameter pairs. One
// evaluator per policy variant behind a single exhaustive switch; an unknown
// policy scores deductively, which callers surface as a warning. Inactive
// parameters are ignored even if the caller forgot to filter them. Pure and
// deterministic: identical input always yields an identical score.
func Score(card scorecard.Scorecard, pairs []Pair) float64 {
	policy, _ := scorecard.ParsePolicy(string(card.Policy))
	switch policy {
	case scorecard.PolicyAdditive:
		return scoreAdditive(pairs)
	case scorecard.PolicyHybrid:
		return scoreHybrid(card, pairs)
	default:
		return scoreDeductive(pairs)
	}
}

// scoreDeductive starts at 100 and subtracts value x points for every
// parameter except achievements and bonuses that are not explicitly
// subtract-directed. Floored at 0. No parameters means a clean slate of 100.
func scoreDeductive(pairs []Pair) float64 {
	score := maxScore
	for _, pr := range pairs {
		if !pr.Param.Active {
			continue
		}
		k := pr.Param.Kind
		if (k == scorecard.KindAchievement || k == scorecard.KindBonus) &&
			pr.Param.Direction != scorecard.DirectionSubtract {
			continue
		}
		score -= pr.Value * pr.Param.Points
	}
	return math.Max(0, score)
}

// scoreAdditive counts only achievement-kind or add-directed parameters:
// earned points over the achievable ceiling, scaled to 100 and capped there.
// Nothing to achieve scores 0.
func scoreAdditive(pairs []Pair) float64 {
	var total, maxPossible float64
	for _, pr := range pairs {
		if !pr.Param.Active {
			continue
		}
		if pr.Param.Kind != scorecard.KindAchievement && pr.Param.Direction != scorecard.DirectionAdd {
			continue
		}
		total += pr.Value * pr.Param.Points
		maxPossible += pr.Param.Points
	}
	if maxPossible == 0 {
		return 0
	}
	return math.Min(maxScore, maxScore*total/maxPossible)
}

// scoreHybrid subtracts errors from a base of 100 and adds achievements and
// bonuses on top. The subtract test runs first, so a subtract-directed
// achievement deducts rather than earns. The bonus sum is capped at the
// card's MaxBonusPoints when that cap is positive; the final score is capped
// at 100 unless the card allows overshoot, and floored at 0 regardless.
func scoreHybrid(card scorecard.Scorecard, pairs []Pair) float64 {
	base := maxScore
	var bonus float64
	for _, pr := range pairs {
		if !pr.Param.Active {
			continue
		}
		k := pr.Param.Kind
		switch {
		case k == scorecard.KindError || pr.Param.Direction == scorecard.DirectionSubtract:
			base -= pr.Value * pr.Param.Points
		case k == scorecard.KindAchievement || k == scorecard.KindBonus ||
			pr.Param.Direction == scorecard.DirectionAdd:
			bonus += pr.Value * pr.Param.Points
		}
	}
	if card.MaxBonusPoints > 0 {
		bonus = math.Min(bonus, card.MaxBonusPoints)
	}
	final := base + bonus
	if !card.AllowOver100 {
		final = math.Min(final, maxScore)
	}
	return math.Max(0, final)
}
