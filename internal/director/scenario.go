package director

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/framereel/internal/effects"
	"github.com/ivlev/framereel/internal/scene"
)

// Scenario is the declarative form of one composition.
type Scenario struct {
	Version  string      `yaml:"version"`
	Name     string      `yaml:"name"`
	Duration int         `yaml:"duration"` // frames
	FPS      float64     `yaml:"fps"`
	Width    int         `yaml:"width"`
	Height   int         `yaml:"height"`
	Overlap  int         `yaml:"overlap,omitempty"` // frames shared by consecutive auto-placed scenes
	Scenes   []SceneSpec `yaml:"scenes"`
	Audio    []CueSpec   `yaml:"audio,omitempty"`
}

// SceneSpec is one scene and its placement on the timeline.
type SceneSpec struct {
	ID         string               `yaml:"id"`
	Start      Start                `yaml:"start"`
	Duration   int                  `yaml:"duration"`
	Properties []scene.PropertySpec `yaml:"properties,omitempty"`
	Elements   []scene.ElementSpec  `yaml:"elements,omitempty"`
	Effects    []effects.Params     `yaml:"effects,omitempty"`
}

// Start is an explicit start frame or "auto" (placed after the previous scene).
type Start struct {
	Frame int
	Auto  bool
}

// At returns an explicit start.
func At(frame int) Start { return Start{Frame: frame} }

// Auto returns an automatically laid out start.
func Auto() Start { return Start{Auto: true} }

// UnmarshalYAML accepts an integer or the word auto.
func (s *Start) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: start must be a frame number or auto", n.Line)
	}
	if n.Value == "auto" {
		*s = Auto()
		return nil
	}
	f, err := strconv.Atoi(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: start %q: must be a frame number or auto", n.Line, n.Value)
	}
	*s = At(f)
	return nil
}

// MarshalYAML writes auto or the frame number.
func (s Start) MarshalYAML() (interface{}, error) {
	if s.Auto {
		return "auto", nil
	}
	return s.Frame, nil
}

// CueSpec is one audio cue. Volume defaults to 1 when neither Volume nor
// Envelope is given.
type CueSpec struct {
	Source   string        `yaml:"source"`
	Start    int           `yaml:"start,omitempty"`
	End      int           `yaml:"end,omitempty"`
	Offset   int           `yaml:"offset,omitempty"`
	Volume   *float64      `yaml:"volume,omitempty"`
	Envelope *EnvelopeSpec `yaml:"envelope,omitempty"`
}

// EnvelopeSpec is a volume curve over global frames.
type EnvelopeSpec struct {
	Frames []float64 `yaml:"frames,flow"`
	Values []float64 `yaml:"values,flow"`
}
