package diag

import "github.com/puzpuzpuz/xsync/v3"

// Registry is a concurrent counter table. A Siphon may be given one (via
// siphon.WithStats) to publish pending-queue depth and pause state to for
// external introspection — e.g. a metrics scrape running on another
// goroutine — without taking a lock on the pipeline's own single-threaded
// state.
type Registry struct {
	counts *xsync.MapOf[string, int64]
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{counts: xsync.NewMapOf[string, int64]()}
}

// Set stores an absolute value for key (e.g. current pending-queue depth).
func (r *Registry) Set(key string, value int64) {
	r.counts.Store(key, value)
}

// Add atomically adds delta to key's current value (0 if unset) and
// returns the new total.
func (r *Registry) Add(key string, delta int64) int64 {
	total, _ := r.counts.Compute(key, func(old int64, loaded bool) (int64, bool) {
		return old + delta, false
	})
	return total
}

// Get returns key's current value, or 0 if never set.
func (r *Registry) Get(key string) int64 {
	v, _ := r.counts.Load(key)
	return v
}

// Snapshot returns a point-in-time copy of every counter in the registry.
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	r.counts.Range(func(key string, value int64) bool {
		out[key] = value
		return true
	})
	return out
}
