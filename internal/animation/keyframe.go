// Package animation contains the interpolation primitives every animated
// property is built from: keyframe sets, easing curves, extrapolation and a few
// deterministic signal generators (springs, waves, noise).
//
// Everything here is a pure function of its arguments. Nothing keeps state
// between calls, so frames can be evaluated in any order and on any goroutine.
package animation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidKeyframeSet is returned when a keyframe set cannot be interpolated.
var ErrInvalidKeyframeSet = errors.New("invalid keyframe set")

// MinKeyframes is the smallest number of points a keyframe set may hold.
const MinKeyframes = 2

// Keyframe is a (time, value) anchor. Time is measured in frames.
type Keyframe struct {
	Frame float64
	Value float64
}

// KeyframeSet is an ordered, validated sequence of keyframes with strictly
// increasing frames. The zero value is not usable; build one with
// NewKeyframeSet.
type KeyframeSet struct {
	keys []Keyframe
}

// NewKeyframeSet pairs frames with values and validates the result.
func NewKeyframeSet(frames, values []float64) (KeyframeSet, error) {
	if len(frames) != len(values) {
		return KeyframeSet{}, fmt.Errorf("%w: %d frames but %d values", ErrInvalidKeyframeSet, len(frames), len(values))
	}
	keys := make([]Keyframe, len(frames))
	for i := range frames {
		keys[i] = Keyframe{Frame: frames[i], Value: values[i]}
	}
	return NewKeyframeSetFrom(keys)
}

// NewKeyframeSetFrom validates an explicit keyframe slice. The slice is copied.
func NewKeyframeSetFrom(keys []Keyframe) (KeyframeSet, error) {
	if len(keys) < MinKeyframes {
		return KeyframeSet{}, fmt.Errorf("%w: need at least %d keyframes, got %d", ErrInvalidKeyframeSet, MinKeyframes, len(keys))
	}
	for i, k := range keys {
		if math.IsNaN(k.Frame) || math.IsInf(k.Frame, 0) {
			return KeyframeSet{}, fmt.Errorf("%w: keyframe %d has non-finite frame", ErrInvalidKeyframeSet, i)
		}
		if math.IsNaN(k.Value) || math.IsInf(k.Value, 0) {
			return KeyframeSet{}, fmt.Errorf("%w: keyframe %d has non-finite value", ErrInvalidKeyframeSet, i)
		}
		if i > 0 && k.Frame <= keys[i-1].Frame {
			return KeyframeSet{}, fmt.Errorf("%w: frames must be strictly increasing (%g after %g)", ErrInvalidKeyframeSet, k.Frame, keys[i-1].Frame)
		}
	}
	cp := make([]Keyframe, len(keys))
	copy(cp, keys)
	return KeyframeSet{keys: cp}, nil
}

// MustKeyframes is like NewKeyframeSet but panics on error.
// Use only for static declarations known to be valid.
func MustKeyframes(frames, values []float64) KeyframeSet {
	ks, err := NewKeyframeSet(frames, values)
	if err != nil {
		panic(err)
	}
	return ks
}

// Len returns the number of keyframes.
func (ks KeyframeSet) Len() int { return len(ks.keys) }

// At returns the i-th keyframe.
func (ks KeyframeSet) At(i int) Keyframe { return ks.keys[i] }

// First returns the earliest keyframe.
func (ks KeyframeSet) First() Keyframe { return ks.keys[0] }

// Last returns the latest keyframe.
func (ks KeyframeSet) Last() Keyframe { return ks.keys[len(ks.keys)-1] }

// Keys returns a copy of the keyframes.
func (ks KeyframeSet) Keys() []Keyframe {
	cp := make([]Keyframe, len(ks.keys))
	copy(cp, ks.keys)
	return cp
}

// Shift returns a copy with every frame moved by df and every value by dv.
func (ks KeyframeSet) Shift(df, dv float64) KeyframeSet {
	cp := make([]Keyframe, len(ks.keys))
	for i, k := range ks.keys {
		cp[i] = Keyframe{Frame: k.Frame + df, Value: k.Value + dv}
	}
	return KeyframeSet{keys: cp}
}

// valid reports whether the set was built through a constructor.
func (ks KeyframeSet) valid() bool { return len(ks.keys) >= MinKeyframes }
