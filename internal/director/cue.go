package director

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ReadCUE loads a scenario from a CUE file.
func ReadCUE(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCUE(path, data)
}

// LoadCUE compiles CUE source, unifies it with the scenario schema and decodes
// the concrete result. filename is used in error positions only.
func LoadCUE(filename string, src []byte) (*Scenario, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScenario, cueDetails(err))
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScenario, cueDetails(err))
	}

	// JSON is valid YAML, so the YAML decoder (and its custom unmarshalers)
	// does the final step.
	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScenario, cueDetails(err))
	}
	return ParseScenario(data)
}

func cueDetails(err error) string {
	return errors.Details(err, nil)
}
