package param

import "sync"

// Registry maps parameter names to handles while preserving registration
// order for enumeration. Registering a name twice replaces the handle and
// keeps its original position; uniqueness is the caller's concern.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Parameter
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Parameter),
	}
}

// Register adds a parameter handle to the registry.
func (r *Registry) Register(p *Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.name]; !exists {
		r.order = append(r.order, p.name)
	}
	r.byName[p.name] = p
}

// Get looks up a handle by name.
func (r *Registry) Get(name string) (*Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	return p, ok
}

// Has reports whether a parameter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns the registered handles in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	params := make([]*Parameter, 0, len(r.order))
	for _, name := range r.order {
		params = append(params, r.byName[name])
	}
	return params
}

// Descriptors returns one descriptor per registered parameter in
// registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, r.byName[name].Descriptor())
	}
	return descs
}
