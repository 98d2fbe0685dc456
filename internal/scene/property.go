package scene

import (
	"fmt"
	"math"

	"github.com/ivlev/framereel/internal/animation"
)

// property is a compiled PropertySpec.
type property struct {
	name   string
	kind   Kind
	deps   []string
	scale  float64
	offset float64

	track  *animation.Track
	input  string
	period float64
	value  float64
	wave   animation.Waveform
	freq   float64
	amp    float64
	phase  float64
	seed   float64
	rate   float64
	delay  float64
	spring animation.SpringConfig
	of     []string
	start  float64
	every  float64
	count  int
}

func compileProperty(s PropertySpec) (*property, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("%w: property without name", ErrInvalidScene)
	}
	kind := s.Kind
	if kind == "" {
		kind = KindConst
		if len(s.Frames) > 0 {
			kind = KindKeyframes
		}
	}

	p := &property{name: s.Name, kind: kind, scale: 1, offset: s.Offset}
	if s.Scale != nil {
		p.scale = *s.Scale
	}

	switch kind {
	case KindKeyframes:
		easing, err := animation.ParseEasing(s.Easing)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
		}
		both, err := animation.ParseExtrapolation(s.Extrapolate)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
		}
		left, right := both, both
		if s.Left != "" {
			if left, err = animation.ParseExtrapolation(s.Left); err != nil {
				return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
			}
		}
		if s.Right != "" {
			if right, err = animation.ParseExtrapolation(s.Right); err != nil {
				return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
			}
		}
		track, err := animation.NewTrack(s.Frames, s.Values,
			animation.WithEasing(easing), animation.WithLeft(left), animation.WithRight(right))
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
		}
		p.track = track
		if s.Period < 0 {
			return nil, fmt.Errorf("%w: property %q: negative period", ErrInvalidScene, s.Name)
		}
		p.period = s.Period
		if s.Input != "" {
			p.input = s.Input
			p.deps = []string{s.Input}
		}
	case KindConst:
		p.value = s.Value
	case KindWave:
		w, err := animation.ParseWaveform(s.Wave)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %v", ErrInvalidScene, s.Name, err)
		}
		p.wave, p.freq, p.amp, p.phase = w, s.Freq, s.Amp, s.Phase
	case KindNoise:
		p.seed, p.rate = s.Seed, s.Rate
	case KindSpring:
		p.delay = s.Delay
		if s.Spring != nil {
			p.spring = *s.Spring
		}
	case KindProduct, KindSum:
		if len(s.Of) == 0 {
			return nil, fmt.Errorf("%w: property %q: %s needs at least one operand", ErrInvalidScene, s.Name, kind)
		}
		p.of = append([]string(nil), s.Of...)
		p.deps = p.of
	case KindStep:
		if s.Every <= 0 || s.Count < 1 {
			return nil, fmt.Errorf("%w: property %q: step needs every > 0 and count >= 1", ErrInvalidScene, s.Name)
		}
		p.start, p.every, p.count = s.Start, s.Every, s.Count
	default:
		return nil, fmt.Errorf("%w: property %q: unknown kind %q", ErrInvalidScene, s.Name, kind)
	}
	return p, nil
}

// eval computes the property at local frame f. Dependencies are already in vals.
func (p *property) eval(f, fps float64, vals Props) float64 {
	var raw float64
	switch p.kind {
	case KindKeyframes:
		t := f
		if p.input != "" {
			t = vals[p.input]
		}
		if p.period > 0 {
			t -= p.period * math.Floor(t/p.period)
		}
		raw = p.track.At(t)
	case KindConst:
		raw = p.value
	case KindWave:
		raw = animation.Wave(p.wave, f, p.phase, p.freq, p.amp)
	case KindNoise:
		raw = animation.Noise(p.seed + p.rate*f)
	case KindSpring:
		raw = animation.Spring(f-p.delay, fps, p.spring)
	case KindProduct:
		raw = 1
		for _, ref := range p.of {
			raw *= vals[ref]
		}
	case KindSum:
		for _, ref := range p.of {
			raw += vals[ref]
		}
	case KindStep:
		i := math.Floor((f - p.start) / p.every)
		raw = math.Max(0, math.Min(float64(p.count-1), i))
	}
	return p.offset + p.scale*raw
}
