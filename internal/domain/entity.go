// Package domain contains core entities and capability interfaces.
// This is the innermost layer - no external dependencies.
package domain

// Fingerprint is an opaque string identifying a deployed resource version.
// It is either a change-tag (ETag) or a modification timestamp (Last-Modified).
// The empty fingerprint means "unknown".
type Fingerprint string

// IsZero reports whether the fingerprint carries no version information.
func (f Fingerprint) IsZero() bool {
	return f == ""
}

// Diverged reports whether probe differs from baseline under the
// "only compare when both known" policy: both fingerprints must be
// non-empty and unequal.
func Diverged(baseline, probed Fingerprint) bool {
	return !baseline.IsZero() && !probed.IsZero() && baseline != probed
}

// State identifies the lifecycle phase of a watcher.
type State string

const (
	// StateUninitialized means Setup has not yet run, or Teardown returned
	// the watcher to a re-armable state.
	StateUninitialized State = "uninitialized"

	// StateArmed means Setup completed and the watcher is observing.
	StateArmed State = "armed"

	// StateDestroyed means the watcher was torn down while never armed.
	// A destroyed watcher can still be re-armed by a later Setup.
	StateDestroyed State = "destroyed"
)
