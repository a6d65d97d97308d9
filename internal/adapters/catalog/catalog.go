// Package catalog loads scorecard definitions from YAML files and serves
// them, immutable, to the evaluation and reporting paths.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/caliberhq/caliper/internal/domain/scorecard"
	"github.com/caliberhq/caliper/pkg/logger"
	"github.com/caliberhq/caliper/pkg/metrics"
)

// Catalog serves scorecard definitions.
type Catalog interface {
	// Scorecard returns the definition with the given ID.
	// Returns ErrScorecardNotFound if the ID is unknown.
	Scorecard(ctx context.Context, id string) (scorecard.Scorecard, error)

	// Scorecards returns every definition, ordered by ID.
	Scorecards(ctx context.Context) []scorecard.Scorecard

	// Tables returns the distinct logical audit tables, sorted.
	Tables(ctx context.Context) []string

	// Count reports how many definitions are loaded.
	Count(ctx context.Context) int
}

const defaultGlob = "scorecards/*.yaml"

// FileCatalog is a Catalog backed by YAML files discovered with a glob.
type FileCatalog struct {
	glob      string
	mu        sync.RWMutex
	byID      map[string]scorecard.Scorecard
	ordered   []scorecard.Scorecard
	validator *schemaValidator
	logger    logger.Logger
}

// NewFileCatalog creates an empty catalog. Call Load before serving from it.
func NewFileCatalog(opts ...Option) (*FileCatalog, error) {
	v, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}

	c := &FileCatalog{
		glob:      defaultGlob,
		byID:      make(map[string]scorecard.Scorecard),
		validator: v,
		logger:    logger.Get().Named("catalog"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Load discovers, validates and indexes every scorecard file matching the
// glob. The whole batch is rejected on the first invalid file so a running
// service never serves a half-loaded catalog. Safe to call again.
func (c *FileCatalog) Load(ctx context.Context) error {
	matches, err := doublestar.FilepathGlob(c.glob)
	if err != nil {
		return fmt.Errorf("%w: bad glob %q: %w", ErrLoadCatalog, c.glob, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: %q", ErrNoScorecards, c.glob)
	}
	sort.Strings(matches)

	byID := make(map[string]scorecard.Scorecard, len(matches))
	ordered := make([]scorecard.Scorecard, 0, len(matches))

	for _, path := range matches {
		card, err := c.loadFile(path)
		if err != nil {
			return err
		}
		if _, ok := byID[card.ID]; ok {
			return fmt.Errorf("%w: %q redefined in %s", ErrDuplicateScorecard, card.ID, path)
		}

		byID[card.ID] = card
		ordered = append(ordered, card)

		if !card.Policy.Known() {
			c.logger.Warn(ctx, "scorecard declares an unknown scoring policy, evaluations will fall back to deductive",
				logger.String("scorecard", card.ID),
				logger.String("policy", string(card.Policy)))
		}
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	c.mu.Lock()
	c.byID = byID
	c.ordered = ordered
	c.mu.Unlock()

	metrics.UpdateScorecardCount(len(ordered))
	c.logger.Info(ctx, "scorecard catalog loaded",
		logger.Int("scorecards", len(ordered)),
		logger.String("glob", c.glob))

	return nil
}

// Scorecard returns the definition with the given ID.
func (c *FileCatalog) Scorecard(_ context.Context, id string) (scorecard.Scorecard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	card, ok := c.byID[id]
	if !ok {
		return scorecard.Scorecard{}, fmt.Errorf("%w: %q", ErrScorecardNotFound, id)
	}
	return card, nil
}

// Scorecards returns every definition ordered by ID.
func (c *FileCatalog) Scorecards(_ context.Context) []scorecard.Scorecard {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]scorecard.Scorecard, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Tables returns the distinct logical audit tables, sorted.
func (c *FileCatalog) Tables(_ context.Context) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.ordered))
	tables := make([]string, 0, len(c.ordered))
	for _, card := range c.ordered {
		if _, ok := seen[card.Table]; ok {
			continue
		}
		seen[card.Table] = struct{}{}
		tables = append(tables, card.Table)
	}
	sort.Strings(tables)
	return tables
}

// Count reports how many definitions are loaded.
func (c *FileCatalog) Count(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered)
}

func (c *FileCatalog) loadFile(path string) (scorecard.Scorecard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scorecard.Scorecard{}, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return scorecard.Scorecard{}, fmt.Errorf("%w: %s: %w", ErrInvalidScorecard, path, err)
	}
	if err := c.validator.validateScorecard(doc); err != nil {
		return scorecard.Scorecard{}, fmt.Errorf("%w: %s: %w", ErrInvalidScorecard, path, err)
	}

	var def fileScorecard
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return scorecard.Scorecard{}, fmt.Errorf("%w: %s: %w", ErrInvalidScorecard, path, err)
	}

	return def.toDomain(), nil
}

// fileScorecard mirrors the YAML document shape.
type fileScorecard struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	Table            string          `yaml:"table"`
	Channel          string          `yaml:"channel"`
	Policy           string          `yaml:"policy"`
	PassingThreshold float64         `yaml:"passing_threshold"`
	AllowOver100     bool            `yaml:"allow_over_100"`
	MaxBonusPoints   float64         `yaml:"max_bonus_points"`
	Parameters       []fileParameter `yaml:"parameters"`
}

type fileParameter struct {
	FieldID       string  `yaml:"field_id"`
	Label         string  `yaml:"label"`
	Kind          string  `yaml:"kind"`
	Direction     string  `yaml:"direction"`
	FieldType     string  `yaml:"field_type"`
	Points        float64 `yaml:"points"`
	ErrorCategory string  `yaml:"error_category"`
	FailAll       bool    `yaml:"fail_all"`
	Active        *bool   `yaml:"active"`
	Order         int     `yaml:"order"`
}

func (f fileScorecard) toDomain() scorecard.Scorecard {
	params := make([]scorecard.Parameter, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.toDomain())
	}

	return scorecard.Scorecard{
		ID:               f.ID,
		Name:             f.Name,
		Table:            f.Table,
		Channel:          f.Channel,
		Policy:           scorecard.Policy(strings.ToLower(strings.TrimSpace(f.Policy))),
		PassingThreshold: f.PassingThreshold,
		AllowOver100:     f.AllowOver100,
		MaxBonusPoints:   f.MaxBonusPoints,
		Parameters:       params,
	}
}

func (p fileParameter) toDomain() scorecard.Parameter {
	// YAML omissions take the schema defaults: active true, counter field.
	active := true
	if p.Active != nil {
		active = *p.Active
	}

	fieldType := scorecard.FieldType(p.FieldType)
	if fieldType == "" {
		fieldType = scorecard.FieldCounter
	}

	return scorecard.Parameter{
		FieldID:       p.FieldID,
		Label:         p.Label,
		Kind:          scorecard.Kind(p.Kind),
		Direction:     scorecard.Direction(p.Direction),
		FieldType:     fieldType,
		Points:        p.Points,
		ErrorCategory: p.ErrorCategory,
		FailAll:       p.FailAll,
		Active:        active,
		Order:         p.Order,
	}
}
