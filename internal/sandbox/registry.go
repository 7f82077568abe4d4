package sandbox

import "sort"

// Module is one loaded unit in the registry.
type Module struct {
	ID   string
	Path string
	// Value is engine specific, e.g. the globals of a starlark module.
	Value any
	Err   error
	// loading marks a module whose body is still executing.
	loading bool
}

// Registry maps module identifiers to loaded modules.
type Registry struct {
	modules map[string]*Module
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Get returns the module registered under id.
func (r *Registry) Get(id string) (*Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

// Put registers m under its ID.
func (r *Registry) Put(m *Module) {
	r.modules[m.ID] = m
}

// Keys returns the registered identifiers, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.modules))
	for id := range r.modules {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Snapshot returns the set of currently registered identifiers.
func (r *Registry) Snapshot() map[string]struct{} {
	snap := make(map[string]struct{}, len(r.modules))
	for id := range r.modules {
		snap[id] = struct{}{}
	}
	return snap
}

// EvictExcept removes every module not present in keep and returns the
// removed identifiers, sorted.
func (r *Registry) EvictExcept(keep map[string]struct{}) []string {
	var evicted []string
	for id := range r.modules {
		if _, ok := keep[id]; !ok {
			evicted = append(evicted, id)
			delete(r.modules, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}
