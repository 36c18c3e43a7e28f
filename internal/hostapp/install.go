// Package hostapp integrates a watcher into a host application
// framework's global-properties surface.
package hostapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/detector"
	"github.com/staleguard/staleguard/internal/domain"
)

// GlobalKey is the name under which the watcher handle is registered on
// the host.
const GlobalKey = "$staleguard"

// Handle is the surface the host gets back: lifecycle control over the
// installed watcher, nothing more.
type Handle struct {
	watcher *detector.Watcher
}

// Setup arms the underlying watcher.
func (h *Handle) Setup(ctx context.Context) error {
	return h.watcher.Setup(ctx)
}

// Destroy tears the underlying watcher down.
func (h *Handle) Destroy() {
	h.watcher.Teardown()
}

// Install registers a watcher handle on the host under GlobalKey and
// delegates everything else to the watcher built from cfg.
//
// Double installation on the same host is guarded: the existing handle
// is returned with a warning and no new watcher is created.
func Install(host domain.Host, cfg detector.Config, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if existing, ok := host.Lookup(GlobalKey); ok {
		if h, ok := existing.(*Handle); ok {
			logger.Warn("staleguard already installed on this host, reusing handle")
			return h, nil
		}
		// Key taken by something that is not ours. Leave it alone.
		return nil, ErrKeyConflict
	}

	w, err := detector.NewWatcher(cfg)
	if err != nil {
		return nil, err
	}

	h := &Handle{watcher: w}
	if !host.Register(GlobalKey, h) {
		// Lost the race to a concurrent install.
		if existing, ok := host.Lookup(GlobalKey); ok {
			if prev, ok := existing.(*Handle); ok {
				logger.Warn("staleguard installed concurrently, reusing handle")
				return prev, nil
			}
		}
		return nil, ErrKeyConflict
	}

	return h, nil
}
