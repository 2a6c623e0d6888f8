// Package record holds attribute state for a validated record and notifies
// subscribers whenever an attribute changes value.
package record

import (
	"reflect"
	"sort"
	"sync"

	"github.com/kingrea/fieldcheck/internal/event"
)

// AnyAttribute subscribes to changes of every attribute.
const AnyAttribute = "*"

// Attributes is a full or partial attribute snapshot. A nil value and a
// missing key both mean the attribute is undefined.
type Attributes map[string]any

// Clone returns a shallow copy of the snapshot.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	out := make(Attributes, len(a))
	for key, value := range a {
		out[key] = value
	}
	return out
}

// Merge returns a copy of a with every entry of changes applied on top.
func (a Attributes) Merge(changes Attributes) Attributes {
	out := a.Clone()
	for key, value := range changes {
		if value == nil {
			delete(out, key)
			continue
		}
		out[key] = value
	}
	return out
}

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for key := range a {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// SetOptions tunes a single Set call.
type SetOptions struct {
	// Silent stores the value without notifying subscribers.
	Silent bool
}

// Change describes one attribute transition delivered to subscribers.
type Change struct {
	Attribute string
	Value     any
	Old       any
}

// Record is an in-memory attribute store with per-attribute change
// notifications. Values are compared with reflect.DeepEqual, so setting an
// attribute to an equal value is not a change.
type Record struct {
	mu    sync.RWMutex
	attrs Attributes
	hub   *event.Hub[string, Change]
}

// New returns a record seeded with initial.
func New(initial Attributes) *Record {
	attrs := make(Attributes, len(initial))
	for key, value := range initial {
		if value != nil {
			attrs[key] = value
		}
	}
	return &Record{
		attrs: attrs,
		hub:   event.NewHub[string, Change](),
	}
}

// Get returns the current value of name, or nil when undefined.
func (r *Record) Get(name string) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attrs[name]
}

// Lookup returns the value of name and whether it is defined.
func (r *Record) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.attrs[name]
	return value, ok
}

// Snapshot returns a copy of every defined attribute.
func (r *Record) Snapshot() Attributes {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attrs.Clone()
}

// Set stores value under name and reports whether it changed. Setting nil
// undefines the attribute.
func (r *Record) Set(name string, value any, opts ...SetOptions) bool {
	var options SetOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	r.mu.Lock()
	old, existed := r.attrs[name]
	if reflect.DeepEqual(old, value) && (existed || value == nil) {
		r.mu.Unlock()
		return false
	}
	if value == nil {
		delete(r.attrs, name)
	} else {
		r.attrs[name] = value
	}
	r.mu.Unlock()
	if !options.Silent {
		change := Change{Attribute: name, Value: value, Old: old}
		r.hub.Emit(name, change)
		r.hub.Emit(AnyAttribute, change)
	}
	return true
}

// SetAll applies every entry of attrs in name order and returns the names
// that changed.
func (r *Record) SetAll(attrs Attributes, opts ...SetOptions) []string {
	var changed []string
	for _, name := range attrs.Names() {
		if r.Set(name, attrs[name], opts...) {
			changed = append(changed, name)
		}
	}
	return changed
}

// Subscribe registers handler for changes of name (or AnyAttribute) and
// returns the function that removes it.
func (r *Record) Subscribe(name string, handler func(Change)) (unsubscribe func()) {
	return r.hub.Subscribe(name, handler)
}
