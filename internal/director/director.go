// Package director turns declarative scenarios (YAML or CUE) into runtime
// compositions and lays scenes out on the timeline.
package director

import (
	"errors"
	"fmt"

	"github.com/ivlev/framereel/internal/animation"
	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/effects"
	"github.com/ivlev/framereel/internal/scene"
	"github.com/ivlev/framereel/internal/timeline"
)

// ErrInvalidScenario is returned for declarations that cannot be decoded or
// compiled.
var ErrInvalidScenario = errors.New("invalid scenario")

const scenarioVersion = "1.0"

// Director compiles scenarios for one output format.
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	FPS            float64
	Overlap        int // default overlap for auto-placed scenes
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		FPS:            30,
	}
}

// Layout returns start frames for scenes played one after another, each
// starting overlap frames before the previous one ends. Starts never go below
// the previous start.
func (d *Director) Layout(durations []int, overlap int) []int {
	starts := make([]int, len(durations))
	for i := 1; i < len(durations); i++ {
		starts[i] = nextStart(starts[i-1], durations[i-1], overlap)
	}
	return starts
}

func nextStart(prevStart, prevDuration, overlap int) int {
	s := prevStart + prevDuration - overlap
	if s < prevStart {
		s = prevStart
	}
	return s
}

// GenerateScenario assembles a scenario whose scenes are all auto-placed. The
// duration is the end of the last scene.
func (d *Director) GenerateScenario(name string, scenes []SceneSpec, audio []CueSpec) *Scenario {
	durations := make([]int, len(scenes))
	for i, s := range scenes {
		durations[i] = s.Duration
	}
	starts := d.Layout(durations, d.Overlap)

	placed := make([]SceneSpec, len(scenes))
	total := 0
	for i, s := range scenes {
		s.Start = Auto()
		placed[i] = s
		if end := starts[i] + s.Duration; end > total {
			total = end
		}
	}

	return &Scenario{
		Version:  scenarioVersion,
		Name:     name,
		Duration: total,
		FPS:      d.FPS,
		Width:    d.ViewportWidth,
		Height:   d.ViewportHeight,
		Overlap:  d.Overlap,
		Scenes:   placed,
		Audio:    audio,
	}
}

// Build compiles a scenario with a director sized from the scenario itself.
func Build(s *Scenario) (*composition.Composition, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrInvalidScenario)
	}
	d := NewDirector(s.Width, s.Height)
	if s.FPS != 0 {
		d.FPS = s.FPS
	}
	d.Overlap = s.Overlap
	return d.Build(s)
}

// Build compiles s into a composition. Effects are expanded into each scene's
// properties and elements before the scene is compiled.
func (d *Director) Build(s *Scenario) (*composition.Composition, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrInvalidScenario)
	}

	starts := d.resolveStarts(s.Scenes)
	clips := make([]timeline.Clip, len(s.Scenes))
	for i, spec := range s.Scenes {
		sc, err := d.compileScene(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		clips[i] = timeline.Clip{Scene: sc, Start: starts[i], Duration: spec.Duration}
	}

	cues := make([]timeline.AudioCue, len(s.Audio))
	for i, c := range s.Audio {
		cue, err := compileCue(c)
		if err != nil {
			return nil, fmt.Errorf("%s: audio %d: %w", s.Name, i, err)
		}
		cues[i] = cue
	}

	tl, err := timeline.New(s.Duration, clips, cues)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return composition.New(s.Name, s.Duration, d.FPS, d.ViewportWidth, d.ViewportHeight, tl)
}

// resolveStarts fills in auto starts from the previous scene in declaration
// order.
func (d *Director) resolveStarts(scenes []SceneSpec) []int {
	starts := make([]int, len(scenes))
	for i, s := range scenes {
		switch {
		case !s.Start.Auto:
			starts[i] = s.Start.Frame
		case i == 0:
			starts[i] = 0
		default:
			starts[i] = nextStart(starts[i-1], scenes[i-1].Duration, d.Overlap)
		}
	}
	return starts
}

func (d *Director) compileScene(spec SceneSpec) (*scene.Scene, error) {
	props := append([]scene.PropertySpec(nil), spec.Properties...)
	elements := append([]scene.ElementSpec(nil), spec.Elements...)
	for i, fx := range spec.Effects {
		fx.Width, fx.Height = d.ViewportWidth, d.ViewportHeight
		if fx.Name == "" {
			fx.Name = fmt.Sprintf("%s%d", fx.Type, i)
		}
		exp, err := effects.Apply(fx)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w: %v", spec.ID, ErrInvalidScenario, err)
		}
		props = append(props, exp.Properties...)
		elements = append(elements, exp.Elements...)
	}
	return scene.New(spec.ID, props, elements, scene.WithFPS(d.FPS))
}

func compileCue(c CueSpec) (timeline.AudioCue, error) {
	cue := timeline.AudioCue{
		Source:       c.Source,
		Start:        c.Start,
		End:          c.End,
		SourceOffset: c.Offset,
		Volume:       1,
	}
	if c.Volume != nil {
		cue.Volume = *c.Volume
	}
	if c.Envelope != nil {
		ks, err := animation.NewKeyframeSet(c.Envelope.Frames, c.Envelope.Values)
		if err != nil {
			return timeline.AudioCue{}, fmt.Errorf("%s: envelope: %w", c.Source, err)
		}
		cue.Envelope = &ks
	}
	return cue, nil
}
