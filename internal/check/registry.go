package check

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a layered name -> value map. Lookups walk the layers from the
// newest override down to the base and return the first hit, so later
// layers win. Writes only ever touch the registry's own top layer; Branch
// freezes that layer and starts a fresh one for the derived registry.
type Registry[T any] struct {
	mu     sync.RWMutex
	frozen []map[string]T
	top    map[string]T
}

// NewRegistry returns a registry whose base layer holds a copy of base.
func NewRegistry[T any](base map[string]T) *Registry[T] {
	top := make(map[string]T, len(base))
	for name, value := range base {
		top[name] = value
	}
	return &Registry[T]{top: top}
}

// Register adds value under name to the top layer. Overriding a name that
// only exists in a lower layer is allowed; registering the same name twice
// on one layer is an error.
func (r *Registry[T]) Register(name string, value T) error {
	if name == "" {
		return fmt.Errorf("check: registry name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.top[name]; exists {
		return fmt.Errorf("check: %s already registered", name)
	}
	r.top[name] = value
	return nil
}

// Lookup resolves name, last writer wins.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if value, ok := r.top[name]; ok {
		return value, true
	}
	for i := len(r.frozen) - 1; i >= 0; i-- {
		if value, ok := r.frozen[i][name]; ok {
			return value, true
		}
	}
	var zero T
	return zero, false
}

// Has reports whether name resolves in any layer.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns every resolvable name in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.top))
	for name := range r.top {
		seen[name] = struct{}{}
	}
	for _, layer := range r.frozen {
		for name := range layer {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Depth returns how many layers the registry resolves through.
func (r *Registry[T]) Depth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.frozen) + 1
}

// Branch derives a registry that sees everything r currently resolves plus
// override on top. Later writes to either registry are invisible to the
// other.
func (r *Registry[T]) Branch(override map[string]T) *Registry[T] {
	r.mu.RLock()
	frozen := make([]map[string]T, 0, len(r.frozen)+1)
	frozen = append(frozen, r.frozen...)
	frozen = append(frozen, copyLayer(r.top))
	r.mu.RUnlock()
	return &Registry[T]{frozen: frozen, top: copyLayer(override)}
}

// Clone returns an independent registry with identical resolution.
func (r *Registry[T]) Clone() *Registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frozen := make([]map[string]T, len(r.frozen))
	copy(frozen, r.frozen)
	return &Registry[T]{frozen: frozen, top: copyLayer(r.top)}
}

func copyLayer[T any](layer map[string]T) map[string]T {
	out := make(map[string]T, len(layer))
	for name, value := range layer {
		out[name] = value
	}
	return out
}
