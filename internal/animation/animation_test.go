package animation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyframeSetValidation(t *testing.T) {
	tests := []struct {
		name   string
		frames []float64
		values []float64
	}{
		{"single point", []float64{0}, []float64{1}},
		{"empty", nil, nil},
		{"length mismatch", []float64{0, 10}, []float64{1}},
		{"duplicate frames", []float64{0, 10, 10}, []float64{0, 1, 2}},
		{"decreasing frames", []float64{10, 5}, []float64{0, 1}},
		{"nan frame", []float64{0, math.NaN()}, []float64{0, 1}},
		{"inf value", []float64{0, 1}, []float64{0, math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyframeSet(tt.frames, tt.values)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidKeyframeSet))
		})
	}
}

func TestNewKeyframeSetCopiesInput(t *testing.T) {
	keys := []Keyframe{{0, 0}, {10, 1}}
	ks, err := NewKeyframeSetFrom(keys)
	require.NoError(t, err)
	keys[1].Value = 99
	assert.Equal(t, 1.0, ks.Last().Value)
}

func TestInterpolateBoundaryClamp(t *testing.T) {
	ks := MustKeyframes([]float64{10, 20}, []float64{0, 1})
	assert.Equal(t, 0.0, Interpolate(ks, Linear, Clamp, Clamp, -5))
	assert.Equal(t, 1.0, Interpolate(ks, Linear, Clamp, Clamp, 1000))
}

func TestInterpolateBoundaryExtend(t *testing.T) {
	ks := MustKeyframes([]float64{10, 20}, []float64{0, 1})
	assert.InDelta(t, -1.0, Interpolate(ks, Linear, Extend, Extend, 0), 1e-12)
	assert.InDelta(t, 2.0, Interpolate(ks, Linear, Extend, Extend, 30), 1e-12)
}

func TestInterpolateNaNFrame(t *testing.T) {
	ks := MustKeyframes([]float64{10, 20, 30}, []float64{3, 1, 2})
	for _, ex := range []Extrapolation{Clamp, Extend} {
		assert.NotPanics(t, func() {
			assert.Equal(t, 3.0, Interpolate(ks, EaseInOut, ex, ex, math.NaN()))
		})
	}
}

func TestInterpolateExtrapolationIsPerSide(t *testing.T) {
	ks := MustKeyframes([]float64{10, 20}, []float64{0, 1})
	assert.Equal(t, 0.0, Interpolate(ks, Linear, Clamp, Extend, 0))
	assert.InDelta(t, 2.0, Interpolate(ks, Linear, Clamp, Extend, 30), 1e-12)
	assert.InDelta(t, -1.0, Interpolate(ks, Linear, Extend, Clamp, 0), 1e-12)
	assert.Equal(t, 1.0, Interpolate(ks, Linear, Extend, Clamp, 30))
}

func TestInterpolateExtendIgnoresEasing(t *testing.T) {
	ks := MustKeyframes([]float64{0, 10}, []float64{0, 10})
	assert.InDelta(t, 15.0, Interpolate(ks, EaseInOut, Extend, Extend, 15), 1e-9)
	assert.InDelta(t, -5.0, Interpolate(ks, Snap, Extend, Extend, -5), 1e-9)
}

func TestInterpolateMidpointLinear(t *testing.T) {
	ks := MustKeyframes([]float64{0, 10}, []float64{0, 10})
	assert.Equal(t, 5.0, Interpolate(ks, Linear, Clamp, Clamp, 5))
	assert.Equal(t, 5.0, Interpolate(ks, nil, Clamp, Clamp, 5))
}

func TestInterpolateMultiSegment(t *testing.T) {
	// opacity envelope: in, hold, out
	ks := MustKeyframes([]float64{15, 30, 55, 60}, []float64{0, 1, 1, 0})
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{15, 0},
		{22.5, 0.5},
		{30, 1},
		{42, 1},
		{55, 1},
		{57.5, 0.5},
		{60, 0},
		{100, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Interpolate(ks, Linear, Clamp, Clamp, tt.t), 1e-12, "t=%v", tt.t)
	}
}

func TestInterpolateExtendUsesBoundarySegments(t *testing.T) {
	ks := MustKeyframes([]float64{0, 10, 20}, []float64{0, 10, 0})
	assert.InDelta(t, -10.0, Interpolate(ks, Linear, Extend, Extend, 30), 1e-12)
	assert.InDelta(t, -5.0, Interpolate(ks, Linear, Extend, Extend, -5), 1e-12)
}

func TestInterpolateHitsKeyframesExactly(t *testing.T) {
	ks := MustKeyframes([]float64{0, 7, 19, 40}, []float64{3, -2, 8, 8.5})
	for _, k := range ks.Keys() {
		for _, e := range []Easing{Linear, EaseInOut, Snap, EaseOut} {
			assert.InDelta(t, k.Value, Interpolate(ks, e, Clamp, Clamp, k.Frame), 1e-9)
		}
	}
}

func TestInterpolateIsPure(t *testing.T) {
	ks := MustKeyframes([]float64{0, 13, 40}, []float64{0.1, 0.9, 0.3})
	for f := -10.0; f < 60; f += 0.5 {
		a := Interpolate(ks, Snap, Extend, Clamp, f)
		b := Interpolate(ks, Snap, Extend, Clamp, f)
		assert.Equal(t, math.Float64bits(a), math.Float64bits(b))
	}
}

func TestEaseInOutMonotonic(t *testing.T) {
	ks := MustKeyframes([]float64{0, 20, 45, 90}, []float64{0, 0.5, 0.5, 4})
	for _, e := range []Easing{EaseInOut, EaseIn, EaseOut, Smooth, EaseInOutCubic} {
		prev := math.Inf(-1)
		for f := -5.0; f <= 100; f += 0.25 {
			v := Interpolate(ks, e, Clamp, Clamp, f)
			assert.GreaterOrEqual(t, v+1e-9, prev, "reversal at f=%v", f)
			prev = v
		}
	}
}

func TestSnapOvershoots(t *testing.T) {
	var min, max float64
	for p := 0.0; p <= 1; p += 0.01 {
		v := Snap(p)
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	assert.Less(t, min, 0.0)
	assert.Greater(t, max, 1.0)
}

func TestBezierEndpointsAndSymmetry(t *testing.T) {
	assert.Equal(t, 0.0, EaseInOut(0))
	assert.Equal(t, 1.0, EaseInOut(1))
	assert.InDelta(t, 0.5, EaseInOut(0.5), 1e-6)
	assert.InDelta(t, 1-EaseInOut(0.3), EaseInOut(0.7), 1e-6)
}

func TestParseEasing(t *testing.T) {
	for _, name := range EasingNames() {
		e, err := ParseEasing(name)
		require.NoError(t, err, name)
		assert.NotNil(t, e)
	}

	e, err := ParseEasing("bezier(0.42, 0, 0.58, 1)")
	require.NoError(t, err)
	assert.InDelta(t, EaseInOut(0.25), e(0.25), 1e-9)

	_, err = ParseEasing("wobble")
	assert.ErrorContains(t, err, "ease-in-out")
	_, err = ParseEasing("bezier(1.5,0,0.5,1)")
	assert.Error(t, err)
	_, err = ParseEasing("bezier(0,1)")
	assert.Error(t, err)
}

func TestParseExtrapolation(t *testing.T) {
	e, err := ParseExtrapolation("")
	require.NoError(t, err)
	assert.Equal(t, Clamp, e)
	e, err = ParseExtrapolation("Extend")
	require.NoError(t, err)
	assert.Equal(t, Extend, e)
	_, err = ParseExtrapolation("wrap")
	assert.Error(t, err)
}

func TestTrackDefaults(t *testing.T) {
	tr, err := NewTrack([]float64{0, 10}, []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.At(-3))
	assert.Equal(t, 1.0, tr.At(13))
	assert.Equal(t, 0.5, tr.At(5))

	tr, err = NewTrack([]float64{0, 10}, []float64{0, 1}, WithExtrapolation(Extend), WithLeft(Clamp))
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.At(-3))
	assert.InDelta(t, 1.3, tr.At(13), 1e-12)

	_, err = NewTrack([]float64{0}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidKeyframeSet)
}

func TestSpring(t *testing.T) {
	assert.Equal(t, 0.0, Spring(-4, 30, DefaultSpring))
	assert.Equal(t, 0.0, Spring(0, 30, DefaultSpring))
	assert.InDelta(t, 1.0, Spring(300, 30, DefaultSpring), 1e-6)

	// Default spring is underdamped and overshoots.
	overshoot := false
	for f := 0.0; f < 60; f++ {
		if Spring(f, 30, DefaultSpring) > 1 {
			overshoot = true
		}
	}
	assert.True(t, overshoot)

	// Heavily damped springs never pass the target.
	stiff := SpringConfig{Damping: 100, Stiffness: 200}
	for f := 0.0; f < 300; f++ {
		assert.LessOrEqual(t, Spring(f, 30, stiff), 1.0)
	}
	critical := SpringConfig{Mass: 1, Damping: 20, Stiffness: 100}
	assert.InDelta(t, 1.0, Spring(300, 30, critical), 1e-6)
}

func TestNoiseDeterministic(t *testing.T) {
	for seed := 0.0; seed < 50; seed++ {
		v := Noise(seed)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
		assert.Equal(t, v, Noise(seed))
	}
	assert.NotEqual(t, Noise(1), Noise(2))
}

func TestWave(t *testing.T) {
	assert.InDelta(t, 0.0, Wave(Sine, 0, 0, 0.04, 8), 1e-12)
	assert.InDelta(t, 5.0, Wave(Cosine, 0, 0, 0.03, 5), 1e-12)
	assert.InDelta(t, 8*math.Sin((10+40)*0.04), Wave(Sine, 10, 40, 0.04, 8), 1e-12)

	w, err := ParseWaveform("cos")
	require.NoError(t, err)
	assert.Equal(t, Cosine, w)
	_, err = ParseWaveform("square")
	assert.Error(t, err)
}
