package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// schemaValidator checks decoded YAML documents against the embedded
// CUE definitions before they are turned into domain values.
type schemaValidator struct {
	ctx       *cue.Context
	scorecard cue.Value
	person    cue.Value
}

func newSchemaValidator() (*schemaValidator, error) {
	ctx := cuecontext.New()

	compiled := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	v := &schemaValidator{ctx: ctx}

	for _, def := range []struct {
		path string
		dst  *cue.Value
	}{
		{"#Scorecard", &v.scorecard},
		{"#Person", &v.person},
	} {
		val := compiled.LookupPath(cue.ParsePath(def.path))
		if !val.Exists() {
			return nil, fmt.Errorf("%w: missing definition %s", ErrSchema, def.path)
		}
		*def.dst = val
	}

	return v, nil
}

// validateScorecard unifies a decoded scorecard document with #Scorecard.
func (v *schemaValidator) validateScorecard(data map[string]any) error {
	return v.validate(v.scorecard, data)
}

// validatePerson unifies a decoded roster entry with #Person.
func (v *schemaValidator) validatePerson(data map[string]any) error {
	return v.validate(v.person, data)
}

func (v *schemaValidator) validate(def cue.Value, data map[string]any) error {
	encoded := v.ctx.Encode(data)
	if err := encoded.Err(); err != nil {
		return err
	}

	unified := def.Unify(encoded)
	if err := unified.Err(); err != nil {
		return err
	}

	return unified.Validate(cue.Concrete(true))
}
