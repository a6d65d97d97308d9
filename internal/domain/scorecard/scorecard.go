// Package scorecard contains the scorecard and parameter definitions that
// evaluations run against.
package scorecard

import (
	"sort"
)

// Policy selects how a scorecard turns parameter values into a score.
type Policy string

// The closed set of scoring policies.
const (
	PolicyDeductive Policy = "deductive"
	PolicyAdditive  Policy = "additive"
	PolicyHybrid    Policy = "hybrid"
)

// ParsePolicy maps a raw policy string onto the closed Policy set.
// Unknown values fall back to deductive; ok reports whether raw was known.
func ParsePolicy(raw string) (Policy, bool) {
	switch Policy(raw) {
	case PolicyDeductive:
		return PolicyDeductive, true
	case PolicyAdditive:
		return PolicyAdditive, true
	case PolicyHybrid:
		return PolicyHybrid, true
	default:
		return PolicyDeductive, false
	}
}

// Known reports whether p is one of the closed policy variants.
func (p Policy) Known() bool {
	switch p {
	case PolicyDeductive, PolicyAdditive, PolicyHybrid:
		return true
	default:
		return false
	}
}

// Kind classifies what a parameter measures.
type Kind string

// Parameter kinds.
const (
	KindError       Kind = "error"
	KindAchievement Kind = "achievement"
	KindBonus       Kind = "bonus"
)

// Direction tells the scoring engine which way a parameter moves the score.
// It may be empty; the policy formulas treat kind and direction together, so
// an unset direction on an error parameter still subtracts.
type Direction string

// Point directions.
const (
	DirectionAdd      Direction = "add"
	DirectionSubtract Direction = "subtract"
)

// FieldType is the input shape a parameter is captured with.
type FieldType string

// Field types.
const (
	FieldCounter FieldType = "counter"
	FieldRadio   FieldType = "radio"
)

// Parameter is a single scoreable criterion on a scorecard.
// FieldID is the join key between the definition and its runtime value.
type Parameter struct {
	FieldID       string
	Label         string
	Kind          Kind
	Direction     Direction
	FieldType     FieldType
	Points        float64
	ErrorCategory string
	FailAll       bool
	Active        bool
	Order         int
}

// Scorecard is a named rubric of weighted parameters. Immutable per
// evaluation; authored externally and loaded through the catalog.
type Scorecard struct {
	ID               string
	Name             string
	Table            string
	Channel          string
	Policy           Policy
	PassingThreshold float64
	AllowOver100     bool
	MaxBonusPoints   float64
	Parameters       []Parameter
}

// ActiveParameters returns the active parameters in display order.
func (s Scorecard) ActiveParameters() []Parameter {
	out := make([]Parameter, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
