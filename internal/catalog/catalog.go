// Package catalog holds the built-in productions.
package catalog

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/director"
)

//go:embed *.yaml *.cue
var files embed.FS

// Entries lists the embedded declaration files in registration order.
var Entries = []string{
	"trailer.yaml",
	"launchfilm.yaml",
	"brandfilm.yaml",
	"chaosfilm.yaml",
	"techintro.cue",
}

// Scenario decodes one embedded declaration.
func Scenario(file string) (*director.Scenario, error) {
	data, err := files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if strings.EqualFold(path.Ext(file), ".cue") {
		return director.LoadCUE(file, data)
	}
	return director.ParseScenario(data)
}

// Scenarios decodes every embedded declaration.
func Scenarios() ([]*director.Scenario, error) {
	out := make([]*director.Scenario, 0, len(Entries))
	for _, file := range Entries {
		s, err := Scenario(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Load builds every built-in production and registers it.
func Load() (*composition.Registry, error) {
	scenarios, err := Scenarios()
	if err != nil {
		return nil, err
	}
	reg := composition.NewRegistry()
	for _, s := range scenarios {
		c, err := director.Build(s)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
