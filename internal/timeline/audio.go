package timeline

import (
	"fmt"

	"github.com/ivlev/framereel/internal/animation"
)

// AudioCue plays Source from SourceOffset frames in, starting at global frame
// Start. End == 0 means the cue plays until the composition ends.
//
// Envelope, when set, is evaluated over global frames with linear easing and
// clamping on both sides. Otherwise Volume is used as a constant gain.
type AudioCue struct {
	Source       string
	Start        int
	End          int
	SourceOffset int
	Volume       float64
	Envelope     *animation.KeyframeSet
}

// Bounded reports whether the cue has an explicit end frame.
func (c AudioCue) Bounded() bool { return c.End != 0 }

// Audible reports whether the cue plays at the global frame.
func (c AudioCue) Audible(frame int) bool {
	if frame < c.Start {
		return false
	}
	return !c.Bounded() || frame < c.End
}

// VolumeAt returns the gain at the global frame. Values above 1 are passed
// through unchanged.
func (c AudioCue) VolumeAt(frame int) float64 {
	if c.Envelope == nil {
		return c.Volume
	}
	return animation.Interpolate(*c.Envelope, animation.Linear, animation.Clamp, animation.Clamp, float64(frame))
}

func (c AudioCue) validate() error {
	if c.Source == "" {
		return fmt.Errorf("empty source")
	}
	if c.Start < 0 {
		return fmt.Errorf("start %d is negative", c.Start)
	}
	if c.SourceOffset < 0 {
		return fmt.Errorf("source offset %d is negative", c.SourceOffset)
	}
	if c.Bounded() && c.End <= c.Start {
		return fmt.Errorf("end %d is not after start %d", c.End, c.Start)
	}
	if c.Envelope != nil && c.Envelope.Len() < animation.MinKeyframes {
		return fmt.Errorf("envelope needs at least %d keyframes", animation.MinKeyframes)
	}
	return nil
}

// CueState is a cue that is audible at some global frame.
type CueState struct {
	Cue      AudioCue
	Index    int // declaration index
	CueFrame int // frames into the source, SourceOffset included
	Volume   float64
}

// AudioAt returns every audible cue at frame with its gain, in declaration
// order. Overlapping cues are all returned; mixing is the caller's job.
func (t *Timeline) AudioAt(frame int) []CueState {
	if frame < 0 || frame >= t.duration {
		return nil
	}
	var out []CueState
	for i, c := range t.cues {
		if !c.Audible(frame) {
			continue
		}
		out = append(out, CueState{
			Cue:      c,
			Index:    i,
			CueFrame: frame - c.Start + c.SourceOffset,
			Volume:   c.VolumeAt(frame),
		})
	}
	return out
}
