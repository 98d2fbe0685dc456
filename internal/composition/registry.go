package composition

import (
	"fmt"
	"sync"
)

// Registry maps names to compositions. It is filled at startup and read
// concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Composition
	names []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Composition)}
}

// Register adds c. A second composition with the same name is rejected.
func (r *Registry) Register(c *Composition) error {
	if c == nil {
		return fmt.Errorf("%w: nil", ErrInvalidComposition)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateComposition, c.Name)
	}
	r.items[c.Name] = c
	r.names = append(r.names, c.Name)
	return nil
}

// Get looks up a composition by exact name.
func (r *Registry) Get(name string) (*Composition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComposition, name)
	}
	return c, nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Len returns the number of registered compositions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
