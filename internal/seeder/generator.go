package seeder

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/caliberhq/caliper/pkg/logger"
)

// Constants for random number generation.
const (
	submissionIDSpace  = 10000
	interactionIDSpace = 900000
	hoursPerDay        = 24
)

// Outcome weights, in percent.
const (
	counterZeroWeight = 55 // error counters are usually clean
	counterOneWeight  = 25
	counterTwoWeight  = 12
	radioErrorWeight  = 15 // error radios trigger rarely
	achievedWeight    = 60 // achievements and bonuses land more often than not
	failAllWeight     = 5  // fail-all violations are rare
	feedbackWeight    = 60 // triggered errors usually draw written feedback
)

// person is one demo employee identity.
type person struct {
	email string
	name  string
}

// The demo employee pool matches the example roster so seeded reports join
// cleanly on team, role and supervisor dimensions.
var employees = []person{
	{"ana.ortiz@example.com", "Ana Ortiz"},
	{"ben.reyes@example.com", "Ben Reyes"},
	{"carmen.diaz@example.com", "Carmen Diaz"},
	{"dev.patel@example.com", "Dev Patel"},
	{"erin.walsh@example.com", "Erin Walsh"},
	{"farid.nouri@example.com", "Farid Nouri"},
	{"gina.russo@example.com", "Gina Russo"},
	{"hugo.klein@example.com", "Hugo Klein"},
}

var auditors = []string{
	"maya.chen@example.com",
	"omar.haddad@example.com",
}

var feedbackPhrases = []string{
	"missed the documented step here",
	"customer had to ask twice",
	"good recovery but the slip still counts",
	"flagged during calibration review",
	"see the interaction transcript for details",
}

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// percentChance reports true with the given probability in percent.
func percentChance(pct int) bool {
	return randomInt(100) < pct
}

// generateAudits creates the requested number of audit submissions spread
// across the loaded scorecards, then appends duplicate retries of already
// generated submissions per the configured rate.
func generateAudits(ctx context.Context, config *Config, cards []scorecardInfo, stats *Stats) ([]auditSubmission, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("no scorecards loaded, nothing to seed")
	}

	logger.Get().Info(ctx, "generating audit submissions",
		logger.Int("numAudits", config.NumAudits),
		logger.Int("scorecards", len(cards)))

	audits := make([]auditSubmission, 0, config.NumAudits)
	for i := 0; i < config.NumAudits; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during audit generation: %w", ctx.Err())
		default:
		}
		card := cards[randomInt(len(cards))]
		audits = append(audits, generateSingleAudit(i, card, config.WindowDays))
	}

	// Retried submissions reuse an existing submission ID so the service's
	// idempotency path gets exercised.
	numDuplicates := config.NumAudits * config.DuplicatePercent / 100
	for i := 0; i < numDuplicates; i++ {
		audits = append(audits, audits[randomInt(config.NumAudits)])
	}

	stats.AuditsGenerated = len(audits)
	logger.Get().Info(ctx, "generated audit submissions",
		logger.Int("fresh", config.NumAudits),
		logger.Int("retries", numDuplicates))

	return audits, nil
}

// generateSingleAudit creates one plausible audit against the given card.
func generateSingleAudit(index int, card scorecardInfo, windowDays int) auditSubmission {
	employee := employees[randomInt(len(employees))]
	auditor := auditors[randomInt(len(auditors))]

	responses := make(map[string]any, len(card.Parameters))
	feedback := make(map[string]string)
	for _, p := range card.Parameters {
		value := generateParameterValue(p)
		responses[p.FieldID] = value
		if p.Kind == "error" && value > 0 && percentChance(feedbackWeight) {
			feedback[p.FieldID] = feedbackPhrases[randomInt(len(feedbackPhrases))]
		}
	}

	if windowDays < 1 {
		windowDays = 1
	}
	auditedAt := time.Now().UTC().
		Add(-time.Duration(randomInt(windowDays*hoursPerDay)) * time.Hour)

	randNum := randomInt(submissionIDSpace)
	submissionID := "seed_" + strconv.Itoa(index) + "_" +
		strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.Itoa(randNum)

	return auditSubmission{
		SubmissionID:  submissionID,
		ScorecardID:   card.ID,
		EmployeeEmail: employee.email,
		EmployeeName:  employee.name,
		InteractionID: "case_" + strconv.Itoa(100000+randomInt(interactionIDSpace)),
		AuditorEmail:  auditor,
		AuditedAt:     auditedAt.Format(time.RFC3339),
		Responses:     responses,
		Feedback:      feedback,
	}
}

// generateParameterValue rolls one parameter outcome. Error counters skew
// toward clean; achievements land more often than not; fail-all violations
// stay rare so most seeded audits remain passable.
func generateParameterValue(p parameterInfo) int {
	if p.FailAll {
		if percentChance(failAllWeight) {
			return 1
		}
		return 0
	}

	if p.FieldType == "radio" {
		switch p.Kind {
		case "achievement", "bonus":
			if percentChance(achievedWeight) {
				return 1
			}
		default:
			if percentChance(radioErrorWeight) {
				return 1
			}
		}
		return 0
	}

	switch p.Kind {
	case "achievement", "bonus":
		if percentChance(achievedWeight) {
			return 1
		}
		return 0
	default:
		roll := randomInt(100)
		switch {
		case roll < counterZeroWeight:
			return 0
		case roll < counterZeroWeight+counterOneWeight:
			return 1
		case roll < counterZeroWeight+counterOneWeight+counterTwoWeight:
			return 2
		default:
			return 3
		}
	}
}
