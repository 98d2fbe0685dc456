package animation

import (
	"fmt"
	"math"
	"strings"
)

// Noise is a cheap deterministic pseudo-random value in [0,1) derived from the
// seed alone. Seed it with the frame and an element index; never with a
// counter shared between frames.
func Noise(seed float64) float64 {
	x := math.Sin(seed+1) * 10000
	return x - math.Floor(x)
}

// Waveform selects the oscillator function used by Wave.
type Waveform int

const (
	Sine Waveform = iota
	Cosine
)

func (w Waveform) String() string {
	if w == Cosine {
		return "cos"
	}
	return "sin"
}

// ParseWaveform parses "sin" or "cos". Empty means sin.
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sin", "sine":
		return Sine, nil
	case "cos", "cosine":
		return Cosine, nil
	default:
		return Sine, fmt.Errorf("unknown waveform %q", s)
	}
}

// Wave returns amp * fn((frame + phase) * freq).
func Wave(w Waveform, frame, phase, freq, amp float64) float64 {
	x := (frame + phase) * freq
	if w == Cosine {
		return amp * math.Cos(x)
	}
	return amp * math.Sin(x)
}
