package module

import (
	"sort"
	"sync"
)

// Registry maps module names to the port sets they exported
// main registers every module once, then commands look ports up by name
type Registry struct {
	mu    sync.RWMutex
	ports map[string]any
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry { return &Registry{ports: map[string]any{}} }

// Register stores ports under name, replacing a previous registration
func (r *Registry) Register(name string, ports any) {
	r.mu.Lock()
	r.ports[name] = ports
	r.mu.Unlock()
}

// Lookup returns the raw port set for name
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.ports[name]
	return v, ok
}

// Names lists registered module names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ports))
	for n := range r.ports {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// As fetches the port set for name from r and asserts it to T
func As[T any](r *Registry, name string) (T, bool) {
	var zero T
	v, ok := r.Lookup(name)
	if !ok {
		return zero, false
	}
	out, ok := v.(T)
	if !ok {
		return zero, false
	}
	return out, true
}

// process-wide registry used by the package-level helpers
var global = NewRegistry()

// Register stores a port set in the process registry
func Register(name string, ports any) { global.Register(name, ports) }

// PortsAs fetches and asserts a port set from the process registry
func PortsAs[T any](name string) (T, bool) { return As[T](global, name) }

// Names lists the modules in the process registry
func Names() []string { return global.Names() }

// Reset clears the process registry; tests only
func Reset() {
	global.mu.Lock()
	global.ports = map[string]any{}
	global.mu.Unlock()
}
