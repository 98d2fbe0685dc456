// Package scene evaluates a self-contained animated unit against its own local
// clock. Local frame 0 is the first frame of the scene regardless of where the
// timeline places it.
package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidScene is returned for malformed property or element declarations.
var ErrInvalidScene = errors.New("invalid scene")

// DefaultFPS is used for spring properties when no rate is given.
const DefaultFPS = 30

// Props maps property names to their values at one local frame.
type Props map[string]float64

// Get returns the named value, or 0 when absent.
func (p Props) Get(name string) float64 { return p[name] }

// Names returns the property names in lexical order.
func (p Props) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Scene is an immutable compiled scene. It is safe for concurrent use.
type Scene struct {
	id       string
	fps      float64
	names    []string    // declaration order, after repeat expansion
	order    []*property // evaluation order
	elements []element
}

// Option configures New.
type Option func(*Scene)

// WithFPS sets the frame rate spring properties are evaluated at.
func WithFPS(fps float64) Option {
	return func(s *Scene) {
		if fps > 0 {
			s.fps = fps
		}
	}
}

// New compiles property and element declarations into a Scene. Repeat blocks
// are expanded first; then every reference is checked and the properties are
// put in dependency order.
func New(id string, props []PropertySpec, elements []ElementSpec, opts ...Option) (*Scene, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidScene)
	}
	s := &Scene{id: id, fps: DefaultFPS}
	for _, opt := range opts {
		opt(s)
	}

	specs := expandProperties(props)
	compiled := make(map[string]*property, len(specs))
	decl := make([]*property, 0, len(specs))
	for _, spec := range specs {
		p, err := compileProperty(spec)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", id, err)
		}
		if _, dup := compiled[p.name]; dup {
			return nil, fmt.Errorf("scene %q: %w: duplicate property %q", id, ErrInvalidScene, p.name)
		}
		compiled[p.name] = p
		decl = append(decl, p)
		s.names = append(s.names, p.name)
	}
	for _, p := range decl {
		for _, dep := range p.deps {
			if _, ok := compiled[dep]; !ok {
				return nil, fmt.Errorf("scene %q: %w: property %q references unknown %q", id, ErrInvalidScene, p.name, dep)
			}
		}
	}

	order, err := topoSort(decl)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", id, err)
	}
	s.order = order

	for i, spec := range expandElements(elements) {
		el, err := compileElement(spec, compiled)
		if err != nil {
			return nil, fmt.Errorf("scene %q: element %d: %w", id, i, err)
		}
		s.elements = append(s.elements, el)
	}
	return s, nil
}

// topoSort orders properties so that every property follows its dependencies.
// Ties keep declaration order.
func topoSort(decl []*property) ([]*property, error) {
	indegree := make(map[string]int, len(decl))
	dependents := make(map[string][]*property, len(decl))
	for _, p := range decl {
		indegree[p.name] = len(p.deps)
		for _, dep := range p.deps {
			dependents[dep] = append(dependents[dep], p)
		}
	}

	var ready []*property
	for _, p := range decl {
		if indegree[p.name] == 0 {
			ready = append(ready, p)
		}
	}

	order := make([]*property, 0, len(decl))
	for len(ready) > 0 {
		p := ready[0]
		ready = ready[1:]
		order = append(order, p)
		for _, d := range dependents[p.name] {
			indegree[d.name]--
			if indegree[d.name] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(decl) {
		var stuck []string
		for _, p := range decl {
			if indegree[p.name] > 0 {
				stuck = append(stuck, p.name)
			}
		}
		return nil, fmt.Errorf("%w: dependency cycle among %s", ErrInvalidScene, strings.Join(stuck, ", "))
	}
	return order, nil
}

// ID returns the scene identifier.
func (s *Scene) ID() string { return s.id }

// PropertyNames lists properties in declaration order, repeats expanded.
func (s *Scene) PropertyNames() []string {
	return append([]string(nil), s.names...)
}

// ElementCount returns the number of elements after repeat expansion.
func (s *Scene) ElementCount() int { return len(s.elements) }

// PropertiesAt evaluates every property at the local frame. Frames outside the
// scene window are allowed; each property applies its own boundary policy.
func (s *Scene) PropertiesAt(localFrame int) Props {
	f := float64(localFrame)
	vals := make(Props, len(s.order))
	for _, p := range s.order {
		vals[p.name] = p.eval(f, s.fps, vals)
	}
	return vals
}

// ElementsAt resolves every element against props, in z-order.
func (s *Scene) ElementsAt(props Props) []Shape {
	shapes := make([]Shape, len(s.elements))
	for i, el := range s.elements {
		shapes[i] = el.resolve(props)
	}
	return shapes
}

// At is PropertiesAt followed by ElementsAt.
func (s *Scene) At(localFrame int) (Props, []Shape) {
	props := s.PropertiesAt(localFrame)
	return props, s.ElementsAt(props)
}
