package evaluate

import (
	"strings"

	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// Counts tallies triggered error parameters by severity tier. Total is the
// sum of the triggered values, not the number of triggered parameters: a
// counter observed 3 times contributes 3 to its tier and to Total.
type Counts struct {
	CriticalFail int
	Critical     int
	Significant  int
	Major        int
	Minor        int
	Total        int
}

// Classify buckets triggered error-kind parameters into severity tiers.
// Achievements and bonuses never count as errors. The tier comes from a
// case-sensitive substring match on the parameter's error category, first
// match wins, in priority order Fail, Critical, Significant, Major, Minor;
// anything else lands in Significant.
func Classify(pairs []Pair) Counts {
	var c Counts
	for _, pr := range pairs {
		if !pr.Param.Active {
			continue
		}
		if k := pr.Param.Kind; k == scorecard.KindAchievement || k == scorecard.KindBonus {
			continue
		}
		if pr.Value <= 0 {
			continue
		}
		n := int(pr.Value)
		switch category := pr.Param.ErrorCategory; {
		case strings.Contains(category, "Fail"):
			c.CriticalFail += n
		case strings.Contains(category, "Critical"):
			c.Critical += n
		case strings.Contains(category, "Significant"):
			c.Significant += n
		case strings.Contains(category, "Major"):
			c.Major += n
		case strings.Contains(category, "Minor"):
			c.Minor += n
		default:
			c.Significant += n
		}
		c.Total += n
	}
	return c
}
