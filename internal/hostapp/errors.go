package hostapp

import "errors"

// ErrKeyConflict means the host's global key is occupied by a value this
// package did not register.
var ErrKeyConflict = errors.New("hostapp: global key occupied by foreign value")

// Registry is a minimal in-memory Host for hosts without their own
// global-properties surface (and for tests).
type Registry struct {
	values map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{values: map[string]any{}}
}

// Register stores value under key. Returns false if key is taken.
func (r *Registry) Register(key string, value any) bool {
	if _, ok := r.values[key]; ok {
		return false
	}
	r.values[key] = value
	return true
}

// Lookup returns the value stored under key.
func (r *Registry) Lookup(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}
