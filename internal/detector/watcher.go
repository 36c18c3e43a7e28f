// Package detector implements the change-detection core: fingerprint
// baseline tracking, navigation-driven re-probing, and asset-error
// correlation.
package detector

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/dialog"
	"github.com/staleguard/staleguard/internal/domain"
	"github.com/staleguard/staleguard/internal/navigation"
	"github.com/staleguard/staleguard/internal/probe"
)

// Watcher detects published deployments by comparing probed fingerprints
// against a baseline captured at Setup. It is an explicit context object:
// the caller owns it, Setup/Teardown bracket its lifecycle, and "one
// active watcher" is enforced by the armed-state guard rather than by
// hidden package state.
//
// Overlapping evaluations (rapid navigations racing the timer) are
// independent fire-and-forget probes with no ordering guarantee. A stale
// response racing a fresh one can at worst cause one extra or missed
// notification cycle, which the heuristic tolerates.
type Watcher struct {
	cfg      Config
	origin   *url.URL
	prober   domain.Prober
	observer *navigation.Observer
	dialog   domain.Dialog
	logger   *zap.Logger

	mu       sync.Mutex
	state    domain.State
	baseline domain.Fingerprint
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// Asset-error correlation.
	tally      int
	assetTimer *time.Timer

	// Default confirmation flow.
	notifyTimer *time.Timer
}

// NewWatcher builds a watcher from cfg. The config is validated once
// here and treated as immutable afterwards.
func NewWatcher(cfg Config) (*Watcher, error) {
	origin, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prober := cfg.Prober
	if prober == nil {
		if cfg.HTTPClient != nil {
			prober = probe.NewHeadProberWithClient(cfg.HTTPClient, cfg.Silent, logger)
		} else {
			prober = probe.NewHeadProber(cfg.Silent, logger)
		}
	}

	if cfg.AssetDebounce <= 0 {
		cfg.AssetDebounce = DefaultAssetDebounce
	}
	if cfg.NotifyDebounce <= 0 {
		cfg.NotifyDebounce = DefaultNotifyDebounce
	}

	w := &Watcher{
		cfg:    cfg,
		origin: origin,
		prober: prober,
		logger: logger,
		state:  domain.StateUninitialized,
	}

	if cfg.Navigation != nil {
		w.observer = navigation.NewObserver(cfg.Navigation, logger)
	}

	w.dialog = cfg.Dialog
	if w.dialog == nil {
		w.dialog = dialog.Detect(logger)
	}

	return w, nil
}

// Setup arms the watcher: primes the fingerprint baseline, starts the
// periodic timer when configured, installs the navigation observer, and
// attaches the asset-error correlator.
//
// Calling Setup while armed is a warning no-op. A disabled config or an
// ignore-path match on the current navigation path skips initialization
// entirely: no probe, no timer, no listeners.
func (w *Watcher) Setup(ctx context.Context) error {
	w.mu.Lock()

	if w.state == domain.StateArmed {
		w.mu.Unlock()
		w.logger.Warn("watcher already armed, ignoring setup")
		return nil
	}

	if !w.cfg.Enabled {
		w.mu.Unlock()
		w.logger.Info("watcher disabled, staying inert")
		return nil
	}

	if w.cfg.IgnorePaths != nil && w.cfg.Navigation != nil {
		if current := w.cfg.Navigation.Current(); w.cfg.IgnorePaths.MatchString(current) {
			w.mu.Unlock()
			w.logger.Info("current path matches ignore pattern, skipping initialization",
				zap.String("path", current))
			return nil
		}
	}

	w.state = domain.StateArmed
	w.mu.Unlock()

	// Prime the baseline. The first probe result is adopted without
	// comparison so the initial load never reads as an update.
	baseline := w.prober.Probe(ctx, w.cfg.CheckPath)

	w.mu.Lock()
	if w.state != domain.StateArmed {
		// Torn down while the priming probe was in flight.
		w.mu.Unlock()
		return nil
	}
	w.baseline = baseline
	if w.cfg.CheckInterval > 0 {
		w.stopCh = make(chan struct{})
		w.wg.Add(1)
		go w.run(w.stopCh)
	}
	w.mu.Unlock()

	if w.observer != nil {
		w.observer.Install(w.onNavigate)
	}

	w.logger.Info("watcher armed",
		zap.String("endpoint", w.cfg.CheckPath),
		zap.Duration("check_interval", w.cfg.CheckInterval),
		zap.Bool("fingerprint_known", !baseline.IsZero()))
	return nil
}

// Teardown stops the timer, cancels pending debounce evaluations, and
// uninstalls the navigation observer, returning the watcher to a state
// from which Setup can re-arm it. Safe to call when never armed.
// Completion is always logged, regardless of Silent.
func (w *Watcher) Teardown() {
	w.mu.Lock()
	armed := w.state == domain.StateArmed
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
	if w.assetTimer != nil {
		w.assetTimer.Stop()
		w.assetTimer = nil
	}
	if w.notifyTimer != nil {
		w.notifyTimer.Stop()
		w.notifyTimer = nil
	}
	w.tally = 0
	w.baseline = ""
	if armed {
		w.state = domain.StateUninitialized
	} else {
		w.state = domain.StateDestroyed
	}
	w.mu.Unlock()

	w.wg.Wait()

	if w.observer != nil {
		w.observer.Uninstall()
	}

	w.logger.Info("watcher teardown complete", zap.Bool("was_armed", armed))
}

// Evaluate probes the endpoint and compares against the baseline.
// With no baseline yet, the result is adopted silently (defensive
// re-priming). Divergence under the both-known rule fires exactly one
// notification; the baseline is deliberately not advanced, so the
// watcher keeps re-notifying until the session actually reloads.
func (w *Watcher) Evaluate(ctx context.Context) {
	w.mu.Lock()
	if w.state != domain.StateArmed {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	probed := w.prober.Probe(ctx, w.cfg.CheckPath)

	w.mu.Lock()
	if w.state != domain.StateArmed {
		w.mu.Unlock()
		return
	}
	if w.baseline.IsZero() {
		w.baseline = probed
		w.mu.Unlock()
		return
	}
	diverged := domain.Diverged(w.baseline, probed)
	w.mu.Unlock()

	if diverged {
		w.logger.Info("deployment change detected",
			zap.String("baseline", string(w.Baseline())),
			zap.String("probed", string(probed)))
		w.notify()
	}
}

// ReportAssetFailure feeds a static-asset load failure into the
// correlation tally. Cross-origin failures are ignored entirely.
// Same-origin failures reset-and-restart the quiescence window; when it
// elapses with a tally above the threshold, the endpoint is re-probed
// under the normal divergence rule. The tally resets either way.
func (w *Watcher) ReportAssetFailure(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	if !sameOrigin(w.origin, u) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != domain.StateArmed {
		return
	}

	w.tally++
	if w.assetTimer != nil {
		w.assetTimer.Stop()
	}
	w.assetTimer = time.AfterFunc(w.cfg.AssetDebounce, w.onAssetQuiescence)
}

// State returns the watcher's lifecycle state.
func (w *Watcher) State() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Baseline returns the fingerprint currently considered "current".
func (w *Watcher) Baseline() domain.Fingerprint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.baseline
}

// Observer exposes the navigation decoration so the host can route its
// own navigation calls through it. Nil when no navigation source was
// configured.
func (w *Watcher) Observer() *navigation.Observer {
	return w.observer
}

// run is the periodic re-probe loop.
func (w *Watcher) run(stop chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Evaluate(context.Background())
		}
	}
}

// onNavigate handles a navigation event, honoring the ignore pattern
// per navigation: a matching path suppresses this evaluation only.
func (w *Watcher) onNavigate(path string) {
	if w.cfg.IgnorePaths != nil && w.cfg.IgnorePaths.MatchString(path) {
		return
	}
	w.Evaluate(context.Background())
}

// onAssetQuiescence fires once the asset-failure window goes quiet.
func (w *Watcher) onAssetQuiescence() {
	w.mu.Lock()
	tally := w.tally
	w.tally = 0
	w.assetTimer = nil
	armed := w.state == domain.StateArmed
	w.mu.Unlock()

	if !armed || tally <= assetFailureThreshold {
		return
	}

	w.logger.Info("correlated asset failures, re-probing",
		zap.Int("failures", tally))
	w.Evaluate(context.Background())
}

// notify routes a confirmed divergence to the user callback, or to the
// debounced default confirmation flow when no callback is configured.
func (w *Watcher) notify() {
	if w.cfg.OnUpdateDetected != nil {
		w.cfg.OnUpdateDetected()
		return
	}

	w.mu.Lock()
	if w.state != domain.StateArmed {
		w.mu.Unlock()
		return
	}
	if w.notifyTimer != nil {
		w.notifyTimer.Stop()
	}
	w.notifyTimer = time.AfterFunc(w.cfg.NotifyDebounce, w.presentConfirmation)
	w.mu.Unlock()
}

// presentConfirmation runs the default flow: prompt, then reload on
// acceptance. Declining is informational only; the watcher does not
// retry beyond its normal re-evaluation cadence.
func (w *Watcher) presentConfirmation() {
	w.mu.Lock()
	w.notifyTimer = nil
	armed := w.state == domain.StateArmed
	w.mu.Unlock()

	if !armed {
		return
	}

	accepted := w.dialog.Confirm(context.Background(),
		"A new version has been published. Reload now?")
	if !accepted {
		if !w.cfg.Silent {
			w.logger.Info("reload declined by user")
		}
		return
	}

	if w.cfg.Reloader == nil {
		w.logger.Warn("reload accepted but no reloader configured")
		return
	}
	if err := w.cfg.Reloader.Reload(); err != nil {
		w.logger.Error("reload failed", zap.Error(err))
	}
}

// sameOrigin reports whether u shares scheme, host, and port with origin.
// Default ports are normalized so http://host and http://host:80 match.
func sameOrigin(origin, u *url.URL) bool {
	if !u.IsAbs() {
		// Relative asset references resolve against the page itself.
		return true
	}
	return origin.Scheme == u.Scheme &&
		origin.Hostname() == u.Hostname() &&
		portOrDefault(origin) == portOrDefault(u)
}

// portOrDefault returns the explicit port, or the scheme default.
func portOrDefault(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
