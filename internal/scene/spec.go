package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/framereel/internal/animation"
)

// Kind names how a property computes its value.
type Kind string

const (
	KindKeyframes Kind = "keyframes"
	KindConst     Kind = "const"
	KindWave      Kind = "wave"
	KindNoise     Kind = "noise"
	KindSpring    Kind = "spring"
	KindProduct   Kind = "product"
	KindSum       Kind = "sum"
	KindStep      Kind = "step"
)

// PropertySpec is the declarative form of a named property. Only the fields
// relevant to Kind are read; the final value is always Offset + Scale*raw.
type PropertySpec struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind,omitempty"`

	// keyframes
	Frames      []float64 `yaml:"frames,flow,omitempty"`
	Values      []float64 `yaml:"values,flow,omitempty"`
	Easing      string    `yaml:"easing,omitempty"`
	Extrapolate string    `yaml:"extrapolate,omitempty"`
	Left        string    `yaml:"left,omitempty"`
	Right       string    `yaml:"right,omitempty"`
	Input       string    `yaml:"input,omitempty"`
	Period      float64   `yaml:"period,omitempty"`

	// const
	Value float64 `yaml:"value,omitempty"`

	// wave, noise
	Wave  string  `yaml:"wave,omitempty"`
	Freq  float64 `yaml:"freq,omitempty"`
	Amp   float64 `yaml:"amp,omitempty"`
	Phase float64 `yaml:"phase,omitempty"`
	Seed  float64 `yaml:"seed,omitempty"`
	Rate  float64 `yaml:"rate,omitempty"`

	// spring
	Delay  float64                 `yaml:"delay,omitempty"`
	Spring *animation.SpringConfig `yaml:"spring,omitempty"`

	// product, sum
	Of []string `yaml:"of,flow,omitempty"`

	// step
	Start float64 `yaml:"start,omitempty"`
	Every float64 `yaml:"every,omitempty"`
	Count int     `yaml:"count,omitempty"`

	Scale  *float64 `yaml:"scale,omitempty"`
	Offset float64  `yaml:"offset,omitempty"`

	Repeat *Repeat `yaml:"repeat,omitempty"`
}

// Repeat expands one declaration into Count numbered copies name.0 .. name.N-1.
// Copy i has its timing moved by i*FrameStep and its value by i*ValueStep.
// "{i}" inside references is replaced by the copy index.
type Repeat struct {
	Count     int     `yaml:"count"`
	FrameStep float64 `yaml:"frameStep,omitempty"`
	ValueStep float64 `yaml:"valueStep,omitempty"`
}

// ElementSpec binds a drawable to properties. Attribute values are literals or
// "$property" references; write "$$" for a literal leading dollar.
type ElementSpec struct {
	Kind   string          `yaml:"kind"`
	Repeat int             `yaml:"repeat,omitempty"`
	Attrs  map[string]Attr `yaml:",inline"`
}

// Attr is a raw element attribute. Scalars of any YAML type decode into it.
type Attr string

// UnmarshalYAML keeps the scalar text verbatim.
func (a *Attr) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: element attribute must be a scalar", n.Line)
	}
	*a = Attr(n.Value)
	return nil
}

// MarshalYAML writes numeric attributes as numbers.
func (a Attr) MarshalYAML() (interface{}, error) {
	if f, ok := number(string(a)); ok {
		return f, nil
	}
	return string(a), nil
}

// Ref returns the referenced property name for "$name" attributes. A leading
// "$$" escapes a literal dollar sign.
func (a Attr) Ref() (string, bool) {
	s := string(a)
	if len(s) > 1 && s[0] == '$' && s[1] != '$' {
		return s[1:], true
	}
	return "", false
}

// Literal returns the attribute text with a leading "$$" unescaped.
func (a Attr) Literal() string {
	s := string(a)
	if strings.HasPrefix(s, "$$") {
		return s[1:]
	}
	return s
}

// Num formats a float attribute.
func Num(v float64) Attr {
	return Attr(strconv.FormatFloat(v, 'f', -1, 64))
}

// Ref builds a "$name" attribute.
func Ref(name string) Attr {
	return Attr("$" + name)
}

func number(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// expandProperties replaces every repeated declaration by its numbered copies.
func expandProperties(specs []PropertySpec) []PropertySpec {
	out := make([]PropertySpec, 0, len(specs))
	for _, s := range specs {
		if s.Repeat == nil {
			out = append(out, s)
			continue
		}
		r := *s.Repeat
		for i := 0; i < r.Count; i++ {
			out = append(out, repeatProperty(s, r, i))
		}
	}
	return out
}

func repeatProperty(s PropertySpec, r Repeat, i int) PropertySpec {
	df := float64(i) * r.FrameStep
	dv := float64(i) * r.ValueStep
	idx := strconv.Itoa(i)

	c := s
	c.Repeat = nil
	c.Name = fmt.Sprintf("%s.%d", s.Name, i)
	c.Input = strings.ReplaceAll(s.Input, "{i}", idx)
	if len(s.Of) > 0 {
		c.Of = make([]string, len(s.Of))
		for j, ref := range s.Of {
			c.Of[j] = strings.ReplaceAll(ref, "{i}", idx)
		}
	}
	if len(s.Frames) > 0 {
		c.Frames = make([]float64, len(s.Frames))
		for j, f := range s.Frames {
			c.Frames[j] = f + df
		}
	}
	if len(s.Values) > 0 {
		c.Values = make([]float64, len(s.Values))
		for j, v := range s.Values {
			c.Values[j] = v + dv
		}
	}
	c.Value += dv
	c.Phase += dv
	c.Seed += dv
	c.Delay += df
	c.Start += df
	return c
}

// expandElements replaces every repeated element by its numbered copies, with
// "{i}" substituted in all attribute values.
func expandElements(specs []ElementSpec) []ElementSpec {
	out := make([]ElementSpec, 0, len(specs))
	for _, e := range specs {
		if e.Repeat <= 0 {
			out = append(out, e)
			continue
		}
		for i := 0; i < e.Repeat; i++ {
			idx := strconv.Itoa(i)
			c := ElementSpec{Kind: e.Kind, Attrs: make(map[string]Attr, len(e.Attrs))}
			for k, v := range e.Attrs {
				c.Attrs[k] = Attr(strings.ReplaceAll(string(v), "{i}", idx))
			}
			out = append(out, c)
		}
	}
	return out
}
