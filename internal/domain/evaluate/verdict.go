package evaluate

import (
	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// Verdict is the binary pass/fail outcome of an evaluation.
type Verdict string

// The two terminal verdicts.
const (
	VerdictPassing    Verdict = "Passing"
	VerdictNotPassing Verdict = "Not Passing"
)

// Decide turns a score into a verdict. Fail-all violations are checked
// strictly before the threshold comparison: a perfect score cannot rescue
// a fail-all violation. Otherwise a score at or above the threshold passes.
func Decide(score, threshold float64, pairs []Pair) Verdict {
	if failAllErrorCount(pairs) > 0 {
		return VerdictNotPassing
	}
	if score >= threshold {
		return VerdictPassing
	}
	return VerdictNotPassing
}

// failAllErrorCount sums an error indicator over the fail-all parameters.
// For achievements and bonuses the indicator is 1 when the value is 0, since
// failing to achieve is the violation; for everything else it is the raw
// value.
func failAllErrorCount(pairs []Pair) float64 {
	var sum float64
	for _, pr := range pairs {
		if !pr.Param.Active || !pr.Param.FailAll {
			continue
		}
		switch pr.Param.Kind {
		case scorecard.KindAchievement, scorecard.KindBonus:
			if pr.Value == 0 {
				sum++
			}
		default:
			sum += pr.Value
		}
	}
	return sum
}
