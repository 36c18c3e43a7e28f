// Package navigation decorates a host navigation source so that every
// navigation, including back/forward events, triggers a callback.
package navigation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/domain"
)

// Observer wraps a domain.NavigationSource. While installed, both
// navigation entry points (Push and Replace) invoke the registered
// callback after the underlying mutation completes, and back/forward
// events from the source are forwarded to the same callback.
//
// The observer is a shared resource: while installed, it is the
// navigation entry point for every caller in the process that routes
// through it, not just this library's own calls. Uninstall restores
// transparent pass-through so no behavior leaks after teardown.
type Observer struct {
	source domain.NavigationSource
	logger *zap.Logger

	mu          sync.Mutex
	installed   bool
	onNavigate  func(path string)
	unsubscribe func()
}

// NewObserver creates an observer around source.
func NewObserver(source domain.NavigationSource, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{
		source: source,
		logger: logger,
	}
}

// Install arms the decoration and subscribes to back/forward events.
// Idempotent: the first install wins; repeated installs do not stack
// callbacks and are logged as no-ops.
func (o *Observer) Install(onNavigate func(path string)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.installed {
		o.logger.Warn("navigation observer already installed, ignoring")
		return
	}

	o.installed = true
	o.onNavigate = onNavigate
	o.unsubscribe = o.source.Subscribe(func(path string) {
		o.notify(path)
	})

	o.logger.Debug("navigation observer installed")
}

// Uninstall restores pass-through behavior and cancels the back/forward
// subscription. Safe to call when never installed (no-op).
func (o *Observer) Uninstall() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.installed {
		return
	}

	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	o.installed = false
	o.onNavigate = nil

	o.logger.Debug("navigation observer uninstalled")
}

// Push performs forward navigation through the underlying source and,
// if the mutation succeeds while installed, invokes the callback.
func (o *Observer) Push(path string) error {
	if err := o.source.Push(path); err != nil {
		return err
	}
	o.notify(path)
	return nil
}

// Replace performs in-place navigation through the underlying source
// and, if the mutation succeeds while installed, invokes the callback.
func (o *Observer) Replace(path string) error {
	if err := o.source.Replace(path); err != nil {
		return err
	}
	o.notify(path)
	return nil
}

// Subscribe delegates to the underlying source.
func (o *Observer) Subscribe(handler func(path string)) (cancel func()) {
	return o.source.Subscribe(handler)
}

// Current delegates to the underlying source.
func (o *Observer) Current() string {
	return o.source.Current()
}

// notify invokes the callback when installed.
func (o *Observer) notify(path string) {
	o.mu.Lock()
	cb := o.onNavigate
	o.mu.Unlock()

	if cb != nil {
		cb(path)
	}
}
