// Package composition names a renderable unit (a timeline plus its output
// format) and keeps the set of compositions a process knows about.
package composition

import (
	"errors"
	"fmt"

	"github.com/ivlev/framereel/internal/timeline"
)

var (
	ErrInvalidComposition   = errors.New("invalid composition")
	ErrDuplicateComposition = errors.New("duplicate composition")
	ErrUnknownComposition   = errors.New("unknown composition")
)

// Composition is a named, fixed-length, fixed-rate, fixed-size timeline.
type Composition struct {
	Name             string
	DurationInFrames int
	FPS              float64
	Width            int
	Height           int
	Timeline         *timeline.Timeline
}

// New validates the fields and returns the composition.
func New(name string, durationInFrames int, fps float64, width, height int, tl *timeline.Timeline) (*Composition, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: empty name", ErrInvalidComposition)
	case durationInFrames < 0:
		return nil, fmt.Errorf("%w: %s: negative duration %d", ErrInvalidComposition, name, durationInFrames)
	case fps <= 0:
		return nil, fmt.Errorf("%w: %s: fps must be positive, got %g", ErrInvalidComposition, name, fps)
	case width <= 0 || height <= 0:
		return nil, fmt.Errorf("%w: %s: bad size %dx%d", ErrInvalidComposition, name, width, height)
	case tl == nil:
		return nil, fmt.Errorf("%w: %s: no timeline", ErrInvalidComposition, name)
	case tl.Duration() != durationInFrames:
		return nil, fmt.Errorf("%w: %s: timeline is %d frames, composition %d", ErrInvalidComposition, name, tl.Duration(), durationInFrames)
	}
	return &Composition{
		Name:             name,
		DurationInFrames: durationInFrames,
		FPS:              fps,
		Width:            width,
		Height:           height,
		Timeline:         tl,
	}, nil
}

// Seconds returns the running time.
func (c *Composition) Seconds() float64 {
	return float64(c.DurationInFrames) / c.FPS
}

// FrameAt converts a time offset in seconds to the frame showing at that time.
func (c *Composition) FrameAt(seconds float64) int {
	return int(seconds * c.FPS)
}
