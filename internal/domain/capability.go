package domain

import "context"

// Prober obtains a version fingerprint from an endpoint.
// Implementation: HEAD request reading ETag / Last-Modified headers.
type Prober interface {
	// Probe returns the endpoint's current fingerprint. Probing fails
	// softly: network errors and non-success responses yield the empty
	// fingerprint, never an error.
	Probe(ctx context.Context, endpoint string) Fingerprint
}

// NavigationSource exposes the host application's navigation entry points.
// The host provides the concrete wiring (router, history journal, ...).
type NavigationSource interface {
	// Push performs forward navigation to path.
	Push(path string) error

	// Replace performs in-place navigation to path.
	Replace(path string) error

	// Subscribe registers a handler for back/forward navigation events.
	// The returned cancel func removes the subscription.
	Subscribe(handler func(path string)) (cancel func())

	// Current returns the current navigation path.
	Current() string
}

// Dialog presents a yes/no confirmation to the user.
type Dialog interface {
	// Confirm blocks until the user answers. Returns true on acceptance.
	Confirm(ctx context.Context, message string) bool
}

// Reloader performs the full session reload once the user accepts.
// The watcher never reloads autonomously; it only invokes this capability.
type Reloader interface {
	Reload() error
}

// Host is the surface a host application framework exposes for plugin
// installation: a global-properties registry keyed by name.
type Host interface {
	// Register stores value under key. Returns false if key is taken.
	Register(key string, value any) bool

	// Lookup returns the value stored under key.
	Lookup(key string) (any, bool)
}
