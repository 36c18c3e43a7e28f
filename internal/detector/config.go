package detector

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/domain"
)

const (
	// DefaultAssetDebounce is the quiescence window for asset-error
	// correlation: the tally is evaluated once no new failure has been
	// reported for this long.
	DefaultAssetDebounce = 1 * time.Second

	// DefaultNotifyDebounce delays the confirmation prompt so that a
	// burst of detections collapses into a single dialog.
	DefaultNotifyDebounce = 500 * time.Millisecond

	// assetFailureThreshold is the strict minimum tally that triggers a
	// correlated re-probe. A single failure is treated as transient noise.
	assetFailureThreshold = 1
)

// Config holds watcher configuration. It is snapshotted at Setup time
// and never mutated afterwards.
type Config struct {
	// Enabled is the master switch. A disabled watcher stays inert.
	Enabled bool

	// CheckInterval is the periodic re-probe cadence. Zero disables the
	// timer; the watcher then only re-checks on navigation and on
	// correlated asset failures.
	CheckInterval time.Duration

	// CheckPath is the probe endpoint. It also defines the page origin
	// used for same-origin asset-failure filtering.
	CheckPath string

	// Silent suppresses diagnostic logging (probe failures, declines).
	// Lifecycle completion logs are never suppressed.
	Silent bool

	// OnUpdateDetected, when set, replaces the default confirmation flow.
	OnUpdateDetected func()

	// IgnorePaths fully bypasses detection on matching navigation paths.
	// A match at Setup time skips initialization entirely.
	IgnorePaths *regexp.Regexp

	// Navigation is the host's navigation source. Optional: without one
	// the watcher relies on the timer and asset correlation alone.
	Navigation domain.NavigationSource

	// Dialog renders the default confirmation prompt. Nil selects a
	// capability-probed default at Setup.
	Dialog domain.Dialog

	// Reloader performs the session reload on acceptance. Nil means the
	// acceptance is logged and nothing else happens.
	Reloader domain.Reloader

	// Prober overrides the HEAD prober (for testing).
	Prober domain.Prober

	// HTTPClient overrides the default probe transport.
	HTTPClient *http.Client

	// Logger receives diagnostics. Nil means no logging.
	Logger *zap.Logger

	// AssetDebounce and NotifyDebounce override the default windows
	// (primarily for tests). Zero selects the defaults.
	AssetDebounce  time.Duration
	NotifyDebounce time.Duration
}

// DefaultConfig returns a config probing checkPath with detection
// enabled and no periodic timer.
func DefaultConfig(checkPath string) Config {
	return Config{
		Enabled:        true,
		CheckPath:      checkPath,
		AssetDebounce:  DefaultAssetDebounce,
		NotifyDebounce: DefaultNotifyDebounce,
	}
}

// validate checks the config and returns the parsed probe origin.
func (c Config) validate() (*url.URL, error) {
	if c.CheckPath == "" {
		return nil, fmt.Errorf("check path required")
	}
	origin, err := url.Parse(c.CheckPath)
	if err != nil {
		return nil, fmt.Errorf("invalid check path %q: %w", c.CheckPath, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("check path %q must be an absolute URL", c.CheckPath)
	}
	return origin, nil
}

// ReloadFunc adapts a plain func to the domain.Reloader capability.
type ReloadFunc func() error

// Reload invokes the wrapped func.
func (f ReloadFunc) Reload() error { return f() }
