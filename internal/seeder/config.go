// Package seeder generates plausible demo audits against the loaded
// scorecards and submits them through the HTTP API.
package seeder

import "time"

// Config holds configuration for one seeding run.
type Config struct {
	BaseURL          string        // Base URL of the service
	NumAudits        int           // Number of audits to generate
	DuplicatePercent int           // Share of submissions retried with the same submission ID
	Workers          int           // Number of concurrent submitters
	Timeout          time.Duration // HTTP request timeout
	WindowDays       int           // Audit timestamps are spread over this many past days
	Verbose          bool          // Enable verbose logging
}

// auditSubmission mirrors the POST /audits request schema.
type auditSubmission struct {
	SubmissionID  string            `json:"submission_id"`
	ScorecardID   string            `json:"scorecard_id"`
	EmployeeEmail string            `json:"employee_email"`
	EmployeeName  string            `json:"employee_name"`
	InteractionID string            `json:"interaction_id"`
	AuditorEmail  string            `json:"auditor_email"`
	AuditedAt     string            `json:"audited_at"`
	Responses     map[string]any    `json:"responses"`
	Feedback      map[string]string `json:"feedback,omitempty"`
}

// receiptResponse mirrors the audit acknowledgement schema.
type receiptResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	AuditID   string `json:"audit_id"`
}

// scorecardInfo is the slice of the scorecard schema the generator needs.
type scorecardInfo struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Table      string          `json:"table"`
	Policy     string          `json:"policy"`
	Parameters []parameterInfo `json:"parameters"`
}

type parameterInfo struct {
	FieldID   string  `json:"field_id"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	FieldType string  `json:"field_type"`
	Points    float64 `json:"points"`
	FailAll   bool    `json:"fail_all"`
}

// reportSummary is the slice of the report schema verification reads.
type reportSummary struct {
	TotalAudits int     `json:"total_audits"`
	AvgScore    float64 `json:"avg_score"`
	PassRate    float64 `json:"pass_rate"`
	Partial     bool    `json:"partial"`
}

// Stats holds seeding run statistics.
type Stats struct {
	AuditsGenerated int
	AuditsSubmitted int
	AuditsStored    int
	AuditsDuplicate int
	AuditsFailed    int
	ReportAudits    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
