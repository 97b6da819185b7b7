// metrics.go - Counter-Registry fuer Backend-Metriken
//
// Dieses Modul enthaelt:
// - Counter: Atomarer Zaehler
// - Registry: Geordnete Counter-Sammlung (nach Name sortiert)
// - Default: Globale Registry, die das Lazy-Backend befuellt
//
// Die Registry spiegelt das Counter-Modell des Lazy-Backends:
// Counter im Namensraum "lazy::" zaehlen Backend-Ereignisse,
// Counter ausserhalb davon zaehlen Fallbacks auf den Eager-Pfad.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/v2/maps/treemap"
)

// Counter is an atomic event counter.
type Counter struct {
	v atomic.Int64
}

func (c *Counter) Inc() {
	c.v.Add(1)
}

func (c *Counter) Add(n int64) {
	c.v.Add(n)
}

func (c *Counter) Value() int64 {
	return c.v.Load()
}

// Registry holds named counters in sorted name order.
type Registry struct {
	mu       sync.Mutex
	counters *treemap.Map[string, *Counter]
}

// Default ist die globale Registry des Prozesses
var Default = NewRegistry()

// NewRegistry erzeugt eine leere Counter-Registry
func NewRegistry() *Registry {
	return &Registry{counters: treemap.New[string, *Counter]()}
}

// Counter returns the counter with the given name, creating it on first use.
func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters.Get(name); ok {
		return c
	}

	c := &Counter{}
	r.counters.Put(name, c)
	return c
}

// Value returns the current value of the named counter, zero if unknown.
func (r *Registry) Value(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters.Get(name); ok {
		return c.Value()
	}
	return 0
}

// Names returns all counter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counters.Keys()
}

// Snapshot returns every counter with a value greater than zero,
// keyed by name.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[string]int64)
	for _, name := range r.counters.Keys() {
		if c, ok := r.counters.Get(name); ok && c.Value() > 0 {
			snap[name] = c.Value()
		}
	}
	return snap
}

// Reset setzt alle Counter auf null zurueck
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.counters.Keys() {
		if c, ok := r.counters.Get(name); ok {
			c.v.Store(0)
		}
	}
}
