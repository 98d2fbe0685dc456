// Package timeline places scenes and audio cues on the global frame axis of a
// composition and answers which of them are live at a given frame.
package timeline

import (
	"errors"
	"fmt"

	"github.com/ivlev/framereel/internal/scene"
)

// ErrInvalidTimeline is returned when clip or cue timing is malformed.
var ErrInvalidTimeline = errors.New("invalid timeline")

// Clip places a scene at [Start, Start+Duration) on the global axis.
type Clip struct {
	Scene    *scene.Scene
	Start    int
	Duration int
}

// End returns the first frame after the clip.
func (c Clip) End() int { return c.Start + c.Duration }

// Contains reports whether the global frame falls inside the clip window.
func (c Clip) Contains(frame int) bool {
	return frame >= c.Start && frame < c.End()
}

// Active is a clip that is live at some global frame.
type Active struct {
	Clip       Clip
	Index      int // declaration index
	LocalFrame int
}

// Timeline is immutable after New and safe for concurrent reads.
type Timeline struct {
	duration int
	clips    []Clip
	cues     []AudioCue
}

// New validates and builds a timeline. Clips may overlap and need not cover the
// whole duration.
func New(duration int, clips []Clip, cues []AudioCue) (*Timeline, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: negative duration %d", ErrInvalidTimeline, duration)
	}
	for i, c := range clips {
		if c.Scene == nil {
			return nil, fmt.Errorf("%w: clip %d has no scene", ErrInvalidTimeline, i)
		}
		if c.Start < 0 {
			return nil, fmt.Errorf("%w: clip %d (%s) starts at %d", ErrInvalidTimeline, i, c.Scene.ID(), c.Start)
		}
		if c.Duration <= 0 {
			return nil, fmt.Errorf("%w: clip %d (%s) has duration %d", ErrInvalidTimeline, i, c.Scene.ID(), c.Duration)
		}
	}
	for i, cue := range cues {
		if err := cue.validate(); err != nil {
			return nil, fmt.Errorf("%w: cue %d (%s): %v", ErrInvalidTimeline, i, cue.Source, err)
		}
	}
	return &Timeline{
		duration: duration,
		clips:    append([]Clip(nil), clips...),
		cues:     append([]AudioCue(nil), cues...),
	}, nil
}

// Duration returns the timeline length in frames.
func (t *Timeline) Duration() int { return t.duration }

// Clips returns the clips in declaration order.
func (t *Timeline) Clips() []Clip { return append([]Clip(nil), t.clips...) }

// Cues returns the audio cues in declaration order.
func (t *Timeline) Cues() []AudioCue { return append([]AudioCue(nil), t.cues...) }

// ActiveAt returns every clip live at frame, in declaration order. Later
// entries draw on top. Frames outside [0, duration) have nothing active.
func (t *Timeline) ActiveAt(frame int) []Active {
	if frame < 0 || frame >= t.duration {
		return nil
	}
	var out []Active
	for i, c := range t.clips {
		if c.Contains(frame) {
			out = append(out, Active{Clip: c, Index: i, LocalFrame: frame - c.Start})
		}
	}
	return out
}
