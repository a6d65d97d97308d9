// Package analytics is the aggregation pipeline: it rolls evaluation-bearing
// audit rows and the roster up into the grouped statistics the reporting
// clients consume. Buckets are transient and recomputed per query, never
// persisted.
package analytics

import (
	"github.com/caliberhq/caliper/internal/domain/roster"
	"github.com/caliberhq/caliper/internal/domain/scorecard"
)

// Row is one evaluation-bearing audit row as the pipeline consumes it.
// Week is the stored week number, stamped at evaluation time and never
// recomputed here.
type Row struct {
	Table         string
	EmployeeEmail string
	Score         float64
	Passed        bool
	TotalErrors   int
	Week          int
	Feedback      map[string]string
}

// Bucket is one grouped statistical summary for a reporting dimension.
// Fields mirror the report schema; Count and TotalCount both carry the
// bucket's row count.
type Bucket struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	AvgScore    float64 `json:"avg_score"`
	PassCount   int     `json:"pass_count"`
	TotalCount  int     `json:"total_count"`
	PassRate    float64 `json:"pass_rate"`
	TotalErrors int     `json:"total_errors"`
}

// TrendPoint is one week's slice of the score trend.
type TrendPoint struct {
	Week     int     `json:"week"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	PassRate float64 `json:"pass_rate"`
}

// ErrorFrequency counts audits where one parameter drew written feedback,
// merged across scorecards by parameter label.
type ErrorFrequency struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report is the PerformanceAnalyticsData bundle: every dimension's buckets,
// the weekly trend, the parameter error frequencies, and overall totals.
// All slices are sorted before exposure so identical inputs produce
// identical reports.
type Report struct {
	Individuals    []Bucket         `json:"individuals"`
	Teams          []Bucket         `json:"teams"`
	Roles          []Bucket         `json:"roles"`
	Designations   []Bucket         `json:"designations"`
	Supervisors    []Bucket         `json:"supervisors"`
	QualityMentors []Bucket         `json:"quality_mentors"`
	Channels       []Bucket         `json:"channels"`
	Trend          []TrendPoint     `json:"trend"`
	ErrorFrequency []ErrorFrequency `json:"error_frequency"`
	TotalAudits    int              `json:"total_audits"`
	AvgScore       float64          `json:"avg_score"`
	PassRate       float64          `json:"pass_rate"`
	Partial        bool             `json:"partial"`
	FailedTables   []string         `json:"failed_tables,omitempty"`
}

// Input bundles everything one report build needs. FailedTables names the
// per-table fetches that failed upstream; their rows are simply absent and
// the report is marked partial.
type Input struct {
	Rows         []Row
	Roster       *roster.Directory
	Scorecards   []scorecard.Scorecard
	ScopeEmail   string
	FailedTables []string
}

// Build reduces the input rows into the full report. Scope gating happens
// here, not in the caller: a non-empty scope email restricts rows to that
// employee before any grouping.
func Build(in Input) Report {
	rows := in.Rows
	if in.ScopeEmail != "" {
		scope := roster.NormalizeEmail(in.ScopeEmail)
		scoped := make([]Row, 0, len(rows))
		for _, r := range rows {
			if roster.NormalizeEmail(r.EmployeeEmail) == scope {
				scoped = append(scoped, r)
			}
		}
		rows = scoped
	}

	dir := in.Roster
	if dir == nil {
		dir = roster.NewDirectory(nil)
	}

	rep := Report{
		Individuals:    reduce(rows, individualKey(dir)),
		Teams:          reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.Team })),
		Roles:          reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.Role })),
		Designations:   reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.Designation })),
		Supervisors:    reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.Supervisor })),
		QualityMentors: reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.QualityMentor })),
		Channels:       reduce(rows, rosterKey(dir, func(p roster.Person) string { return p.Channel })),
		Trend:          trend(rows),
		ErrorFrequency: errorFrequency(rows, in.Scorecards),
		TotalAudits:    len(rows),
		Partial:        len(in.FailedTables) > 0,
		FailedTables:   in.FailedTables,
	}

	var scoreSum float64
	var passCount int
	for _, r := range rows {
		scoreSum += r.Score
		if r.Passed {
			passCount++
		}
	}
	if len(rows) > 0 {
		rep.AvgScore = scoreSum / float64(len(rows))
		rep.PassRate = 100 * float64(passCount) / float64(len(rows))
	}

	return rep
}
