package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Element kinds understood by the renderer.
const (
	ElementFill    = "fill"
	ElementRect    = "rect"
	ElementCircle  = "circle"
	ElementLine    = "line"
	ElementPolygon = "polygon"
	ElementText    = "text"
	ElementImage   = "image"
	ElementQR      = "qr"
)

var elementKinds = map[string]bool{
	ElementFill: true, ElementRect: true, ElementCircle: true, ElementLine: true,
	ElementPolygon: true, ElementText: true, ElementImage: true, ElementQR: true,
}

// ElementKinds lists the supported element kinds.
func ElementKinds() []string {
	kinds := make([]string, 0, len(elementKinds))
	for k := range elementKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Shape is an element with every attribute resolved for one frame. Numeric
// attributes (literal or referenced) are in Num; literal attributes keep their
// source text in Str.
type Shape struct {
	Kind string             `json:"kind"`
	Num  map[string]float64 `json:"num,omitempty"`
	Str  map[string]string  `json:"str,omitempty"`
}

// Float returns a numeric attribute or def.
func (s Shape) Float(key string, def float64) float64 {
	if v, ok := s.Num[key]; ok {
		return v
	}
	return def
}

// Text returns an attribute as text or def. Referenced values are formatted.
func (s Shape) Text(key, def string) string {
	if v, ok := s.Str[key]; ok {
		return v
	}
	if v, ok := s.Num[key]; ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return def
}

type binding struct {
	key string
	ref string
}

type element struct {
	kind  string
	num   map[string]float64
	str   map[string]string
	binds []binding
}

func compileElement(spec ElementSpec, props map[string]*property) (element, error) {
	if !elementKinds[spec.Kind] {
		return element{}, fmt.Errorf("%w: unknown element kind %q (want one of %s)", ErrInvalidScene, spec.Kind, strings.Join(ElementKinds(), ", "))
	}
	el := element{
		kind: spec.Kind,
		num:  make(map[string]float64),
		str:  make(map[string]string),
	}
	keys := make([]string, 0, len(spec.Attrs))
	for k := range spec.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := spec.Attrs[k]
		if ref, ok := a.Ref(); ok {
			if _, known := props[ref]; !known {
				return element{}, fmt.Errorf("%w: %s attribute %q references unknown property %q", ErrInvalidScene, spec.Kind, k, ref)
			}
			el.binds = append(el.binds, binding{key: k, ref: ref})
			continue
		}
		lit := a.Literal()
		el.str[k] = lit
		if f, ok := number(lit); ok {
			el.num[k] = f
		}
	}
	return el, nil
}

func (el element) resolve(props Props) Shape {
	sh := Shape{
		Kind: el.kind,
		Num:  make(map[string]float64, len(el.num)+len(el.binds)),
		Str:  el.str,
	}
	for k, v := range el.num {
		sh.Num[k] = v
	}
	for _, b := range el.binds {
		sh.Num[b.key] = props[b.ref]
	}
	return sh
}
