// Package sharedstate is a small, name-keyed, process-wide registry of
// long-lived resources a wrapper or adapter needs across many resources
// and batches — most notably the graph driver connection pool under the
// well-known slot [GraphDriverSlot]. It follows the same RWMutex-guarded-map
// idiom as package registry, over arbitrary `any` slots instead of typed
// function families. Unlike registry it has no snapshot: every Get reads
// the live binding.
package sharedstate

import (
	"fmt"
	"sync"
)

// GraphDriverSlot is the well-known slot name for a graph driver shared with
// wrapper code. The engine neither fills nor reads this slot (nor any other
// Facility); callers set it and hand the Facility to their wrappers.
const GraphDriverSlot = "graph_driver"

// Facility is a name-keyed store of shared values. The zero value is not
// usable; construct with [New].
type Facility struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns an empty Facility.
func New() *Facility {
	return &Facility{values: make(map[string]any)}
}

// Set binds name to val, replacing any previous binding.
func (f *Facility) Set(name string, val any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = val
}

// Get returns the value bound to name, if any.
func (f *Facility) Get(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[name]
	return v, ok
}

// MustGet returns the value bound to name, panicking if it is unbound. Used
// by adapters that require a slot to have been configured before the
// engine starts a run, where a missing slot is a programmer error rather
// than a recoverable condition.
func (f *Facility) MustGet(name string) any {
	v, ok := f.Get(name)
	if !ok {
		panic(fmt.Sprintf("sharedstate: slot %q is not set", name))
	}
	return v
}

// Delete removes name's binding, if any.
func (f *Facility) Delete(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, name)
}

// Names returns all currently bound slot names.
func (f *Facility) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.values))
	for k := range f.values {
		names = append(names, k)
	}
	return names
}
