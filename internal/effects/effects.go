// Package effects holds reusable animated text and card presets. An effect
// never draws anything itself; it expands into ordinary scene properties and
// elements, so its output is evaluated like any hand-written declaration.
package effects

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ivlev/framereel/internal/animation"
	"github.com/ivlev/framereel/internal/scene"
)

// ErrUnknownEffect is returned by Get for names not in the registry.
var ErrUnknownEffect = errors.New("unknown effect")

// Params are the knobs shared by all presets. Zero values fall back to the
// preset's defaults.
type Params struct {
	Type     string  `yaml:"type"`
	Name     string  `yaml:"name,omitempty"`
	Text     string  `yaml:"text,omitempty"`
	Delay    float64 `yaml:"delay,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	Size     float64 `yaml:"size,omitempty"`
	Color    string  `yaml:"color,omitempty"`
	Font     string  `yaml:"font,omitempty"`
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	Src      string  `yaml:"src,omitempty"`

	// Frame size, filled in by the caller when X/Y are left at zero.
	Width  int `yaml:"-"`
	Height int `yaml:"-"`
}

// Expansion is what an effect contributes to a scene.
type Expansion struct {
	Properties []scene.PropertySpec
	Elements   []scene.ElementSpec
}

// Effect expands parameters into scene declarations.
type Effect interface {
	Expand(p Params) (Expansion, error)
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(p Params) (Expansion, error)

// Expand calls f.
func (f EffectFunc) Expand(p Params) (Expansion, error) { return f(p) }

var registry = map[string]Effect{
	"typewriter": EffectFunc(typewriter),
	"stagger":    EffectFunc(stagger),
	"risefade":   EffectFunc(riseFade),
	"zoomgrow":   EffectFunc(zoomGrow),
	"fadein":     EffectFunc(fadeIn),
	"reveal":     EffectFunc(reveal),
	"endframe":   EffectFunc(endFrame),
}

// Get returns the named effect.
func Get(name string) (Effect, error) {
	e, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return e, nil
}

// Names lists the registered effects.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply looks up p.Type and expands it.
func Apply(p Params) (Expansion, error) {
	e, err := Get(p.Type)
	if err != nil {
		return Expansion{}, err
	}
	return e.Expand(p)
}

// normalize returns NFC text and its runes. Combining sequences that have a
// precomposed form count as one character.
func normalize(text string) (string, []rune) {
	s := norm.NFC.String(text)
	return s, []rune(s)
}

// withDefaults fills position, size, colour and name.
func (p Params) withDefaults(name string, size float64, color string) Params {
	if p.Name == "" {
		p.Name = name
	}
	if p.Size <= 0 {
		p.Size = size
	}
	if p.Color == "" {
		p.Color = color
	}
	if p.X == 0 && p.Width > 0 {
		p.X = float64(p.Width) / 2
	}
	if p.Y == 0 && p.Height > 0 {
		p.Y = float64(p.Height) / 2
	}
	return p
}

func (p Params) prop(suffix string) string {
	return p.Name + "." + suffix
}

func ramp(name string, from, to, v0, v1 float64, easing string) scene.PropertySpec {
	return scene.PropertySpec{
		Name:   name,
		Kind:   scene.KindKeyframes,
		Frames: []float64{from, to},
		Values: []float64{v0, v1},
		Easing: easing,
	}
}

func spring(name string, delay, damping, stiffness float64) scene.PropertySpec {
	return scene.PropertySpec{
		Name:   name,
		Kind:   scene.KindSpring,
		Delay:  delay,
		Spring: &animation.SpringConfig{Mass: 1, Damping: damping, Stiffness: stiffness},
	}
}

func textElement(p Params, text string) scene.ElementSpec {
	attrs := map[string]scene.Attr{
		"text":  scene.Attr(text),
		"x":     scene.Num(p.X),
		"y":     scene.Num(p.Y),
		"size":  scene.Num(p.Size),
		"color": scene.Attr(p.Color),
		"align": "center",
	}
	if p.Font != "" {
		attrs["font"] = scene.Attr(p.Font)
	}
	return scene.ElementSpec{Kind: scene.ElementText, Attrs: attrs}
}

func requireText(effect string, p Params) ([]rune, string, error) {
	s, runes := normalize(p.Text)
	if len(runes) == 0 {
		return nil, "", fmt.Errorf("%s: text is empty", effect)
	}
	return runes, s, nil
}
