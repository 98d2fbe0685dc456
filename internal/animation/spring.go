package animation

import "math"

// SpringConfig describes a damped spring pulling a value from 0 to 1.
type SpringConfig struct {
	Mass      float64 `yaml:"mass,omitempty" json:"mass,omitempty"`
	Damping   float64 `yaml:"damping,omitempty" json:"damping,omitempty"`
	Stiffness float64 `yaml:"stiffness,omitempty" json:"stiffness,omitempty"`
}

// DefaultSpring is mass 1, damping 10, stiffness 100.
var DefaultSpring = SpringConfig{Mass: 1, Damping: 10, Stiffness: 100}

func (c SpringConfig) withDefaults() SpringConfig {
	if c.Mass <= 0 {
		c.Mass = DefaultSpring.Mass
	}
	if c.Damping <= 0 {
		c.Damping = DefaultSpring.Damping
	}
	if c.Stiffness <= 0 {
		c.Stiffness = DefaultSpring.Stiffness
	}
	return c
}

// Spring returns the spring position at frame for the given frame rate. The
// spring rests at 0 before frame 0 and settles at 1. Underdamped springs
// overshoot.
func Spring(frame, fps float64, cfg SpringConfig) float64 {
	if frame <= 0 || fps <= 0 {
		return 0
	}
	cfg = cfg.withDefaults()
	t := frame / fps
	w0 := math.Sqrt(cfg.Stiffness / cfg.Mass)
	zeta := cfg.Damping / (2 * math.Sqrt(cfg.Stiffness*cfg.Mass))

	switch {
	case zeta < 1:
		wd := w0 * math.Sqrt(1-zeta*zeta)
		env := math.Exp(-zeta * w0 * t)
		return 1 - env*(math.Cos(wd*t)+(zeta*w0/wd)*math.Sin(wd*t))
	case zeta == 1:
		return 1 - math.Exp(-w0*t)*(1+w0*t)
	default:
		root := math.Sqrt(zeta*zeta - 1)
		r1 := -w0 * (zeta - root)
		r2 := -w0 * (zeta + root)
		return 1 - (r2*math.Exp(r1*t)-r1*math.Exp(r2*t))/(r2-r1)
	}
}
