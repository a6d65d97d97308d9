package analytics

import (
	"sort"
	"strings"

	"github.com/caliberhq/caliper/internal/domain/roster"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// keyFunc maps a row to its bucket key and display label for one dimension.
type keyFunc func(Row) (key, label string)

// accumulator carries one bucket's running sums through the reduction.
type accumulator struct {
	label       string
	scoreSum    float64
	passCount   int
	totalCount  int
	totalErrors int
}

// reduce is the generic grouping reducer shared by every dimension: it
// accumulates scores, pass counts, totals, and error sums per key, then
// finalizes means and rates. Buckets come back sorted by key so map
// iteration order never leaks into the output.
func reduce(rows []Row, key keyFunc) []Bucket {
	accs := make(map[string]*accumulator)
	for _, r := range rows {
		k, label := key(r)
		a, ok := accs[k]
		if !ok {
			a = &accumulator{label: label}
			accs[k] = a
		}
		a.scoreSum += r.Score
		if r.Passed {
			a.passCount++
		}
		a.totalCount++
		a.totalErrors += r.TotalErrors
	}

	out := make([]Bucket, 0, len(accs))
	for k, a := range accs {
		b := Bucket{
			Key:         k,
			Label:       a.label,
			Count:       a.totalCount,
			PassCount:   a.passCount,
			TotalCount:  a.totalCount,
			TotalErrors: a.totalErrors,
		}
		if a.totalCount > 0 {
			b.AvgScore = a.scoreSum / float64(a.totalCount)
			b.PassRate = 100 * float64(a.passCount) / float64(a.totalCount)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// individualKey groups by normalized employee email, labeled with the roster
// name when the employee is known and the email otherwise.
func individualKey(dir *roster.Directory) keyFunc {
	return func(r Row) (string, string) {
		email := roster.NormalizeEmail(r.EmployeeEmail)
		if p, ok := dir.Lookup(email); ok && p.Name != "" {
			return email, p.Name
		}
		return email, email
	}
}

// rosterKey groups by one roster field, joined on normalized email. Rows
// with no roster match, or a match with an empty field, land in the Unknown
// bucket rather than being dropped.
func rosterKey(dir *roster.Directory, field func(roster.Person) string) keyFunc {
	return func(r Row) (string, string) {
		if p, ok := dir.Lookup(r.EmployeeEmail); ok {
			if v := strings.TrimSpace(field(p)); v != "" {
				return v, v
			}
		}
		return roster.UnknownLabel, roster.UnknownLabel
	}
}

// trend buckets rows by their stored week number and finalizes one point per
// week, sorted by week.
func trend(rows []Row) []TrendPoint {
	type weekAcc struct {
		scoreSum  float64
		passCount int
		count     int
	}
	accs := make(map[int]*weekAcc)
	for _, r := range rows {
		a, ok := accs[r.Week]
		if !ok {
			a = &weekAcc{}
			accs[r.Week] = a
		}
		a.scoreSum += r.Score
		if r.Passed {
			a.passCount++
		}
		a.count++
	}

	out := make([]TrendPoint, 0, len(accs))
	for week, a := range accs {
		p := TrendPoint{Week: week, Count: a.count}
		if a.count > 0 {
			p.AvgScore = a.scoreSum / float64(a.count)
			p.PassRate = 100 * float64(a.passCount) / float64(a.count)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

// errorFrequency counts, per scorecard error parameter, the rows of that
// scorecard's table carrying non-empty feedback for the parameter's fieldID,
// then merges counts across scorecards sharing a parameter label. Only
// parameters that drew feedback appear; the result is sorted by label.
func errorFrequency(rows []Row, cards []scorecard.Scorecard) []ErrorFrequency {
	byTable := make(map[string][]Row)
	for _, r := range rows {
		byTable[r.Table] = append(byTable[r.Table], r)
	}

	counts := make(map[string]int)
	for _, card := range cards {
		tableRows := byTable[card.Table]
		if len(tableRows) == 0 {
			continue
		}
		for _, p := range card.ActiveParameters() {
			if p.Kind == scorecard.KindAchievement || p.Kind == scorecard.KindBonus {
				continue
			}
			n := 0
			for _, r := range tableRows {
				if strings.TrimSpace(r.Feedback[p.FieldID]) != "" {
					n++
				}
			}
			if n > 0 {
				counts[p.Label] += n
			}
		}
	}

	out := make([]ErrorFrequency, 0, len(counts))
	for label, n := range counts {
		out = append(out, ErrorFrequency{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
