package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caliberhq/caliper/internal/domain/roster"
)

// filePerson mirrors one roster YAML entry.
type filePerson struct {
	Email         string `yaml:"email"`
	Name          string `yaml:"name"`
	Role          string `yaml:"role"`
	Department    string `yaml:"department"`
	Designation   string `yaml:"designation"`
	Team          string `yaml:"team"`
	Supervisor    string `yaml:"supervisor"`
	QualityMentor string `yaml:"quality_mentor"`
	Channel       string `yaml:"channel"`
}

// LoadRoster reads a roster YAML file, a top-level list of people, and
// validates every entry against the embedded schema.
func LoadRoster(path string) ([]roster.Person, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoster, path, err)
	}

	var docs []map[string]any
	if err := yaml.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoster, path, err)
	}

	v, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if err := v.validatePerson(doc); err != nil {
			return nil, fmt.Errorf("%w: %s entry %d: %w", ErrInvalidRoster, path, i, err)
		}
	}

	var entries []filePerson
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoster, path, err)
	}

	people := make([]roster.Person, 0, len(entries))
	for _, e := range entries {
		people = append(people, roster.Person{
			Email:         e.Email,
			Name:          e.Name,
			Role:          e.Role,
			Department:    e.Department,
			Designation:   e.Designation,
			Team:          e.Team,
			Supervisor:    e.Supervisor,
			QualityMentor: e.QualityMentor,
			Channel:       e.Channel,
		})
	}

	return people, nil
}
