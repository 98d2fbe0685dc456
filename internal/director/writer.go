package director

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := EncodeScenario(scenario)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EncodeScenario renders a scenario as YAML with two-space indentation.
func EncodeScenario(scenario *Scenario) ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(scenario); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// ReadScenario reads a scenario from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario decodes YAML (or JSON) scenario text. Unknown fields are errors.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var scenario Scenario
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	return &scenario, nil
}

// Load reads a scenario file, choosing the decoder by extension.
func Load(path string) (*Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadScenario(path)
	case ".cue":
		return ReadCUE(path)
	default:
		return nil, fmt.Errorf("%s: unsupported scenario format (want .yaml, .yml or .cue)", path)
	}
}
