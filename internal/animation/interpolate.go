package animation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Extrapolation decides what happens outside the keyframe domain.
type Extrapolation int

const (
	// Clamp holds the boundary value.
	Clamp Extrapolation = iota
	// Extend continues the boundary segment's slope linearly.
	Extend
)

func (e Extrapolation) String() string {
	switch e {
	case Clamp:
		return "clamp"
	case Extend:
		return "extend"
	default:
		return fmt.Sprintf("Extrapolation(%d)", int(e))
	}
}

// ParseExtrapolation parses "clamp" or "extend". Empty means clamp.
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "extend":
		return Extend, nil
	default:
		return Clamp, fmt.Errorf("unknown extrapolation %q: must be clamp or extend", s)
	}
}

// Interpolate evaluates ks at t. Easing is applied inside each segment only;
// before the first and after the last keyframe left/right decide the result.
// A nil easing is treated as Linear. A NaN t gives the first value.
func Interpolate(ks KeyframeSet, easing Easing, left, right Extrapolation, t float64) float64 {
	keys := ks.keys
	if !ks.valid() {
		return 0
	}
	if easing == nil {
		easing = Linear
	}

	first, last := keys[0], keys[len(keys)-1]
	if math.IsNaN(t) {
		return first.Value
	}
	if t < first.Frame {
		if left == Clamp {
			return first.Value
		}
		return lerp(first, keys[1], progress(first, keys[1], t))
	}
	if t >= last.Frame {
		if right == Clamp || t == last.Frame {
			return last.Value
		}
		prev := keys[len(keys)-2]
		return lerp(prev, last, progress(prev, last, t))
	}

	// First keyframe strictly after t; the segment is [i-1, i].
	i := sort.Search(len(keys), func(j int) bool { return keys[j].Frame > t })
	a, b := keys[i-1], keys[i]
	return lerp(a, b, easing(progress(a, b, t)))
}

func progress(a, b Keyframe, t float64) float64 {
	return (t - a.Frame) / (b.Frame - a.Frame)
}

// lerp performs linear interpolation between two keyframe values
func lerp(a, b Keyframe, p float64) float64 {
	return a.Value + (b.Value-a.Value)*p
}

// Track binds a keyframe set to an easing and an extrapolation policy per side.
type Track struct {
	Keys   KeyframeSet
	Easing Easing
	Left   Extrapolation
	Right  Extrapolation
}

// TrackOption configures a Track.
type TrackOption func(*Track)

// WithEasing sets the in-segment easing.
func WithEasing(e Easing) TrackOption {
	return func(t *Track) { t.Easing = e }
}

// WithExtrapolation sets the policy for both sides.
func WithExtrapolation(e Extrapolation) TrackOption {
	return func(t *Track) { t.Left, t.Right = e, e }
}

// WithLeft sets the policy before the first keyframe.
func WithLeft(e Extrapolation) TrackOption {
	return func(t *Track) { t.Left = e }
}

// WithRight sets the policy after the last keyframe.
func WithRight(e Extrapolation) TrackOption {
	return func(t *Track) { t.Right = e }
}

// NewTrack builds a linear, clamped track unless options say otherwise.
func NewTrack(frames, values []float64, opts ...TrackOption) (*Track, error) {
	ks, err := NewKeyframeSet(frames, values)
	if err != nil {
		return nil, err
	}
	t := &Track{Keys: ks, Easing: Linear, Left: Clamp, Right: Clamp}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// At evaluates the track at frame t.
func (tr *Track) At(t float64) float64 {
	return Interpolate(tr.Keys, tr.Easing, tr.Left, tr.Right, t)
}
