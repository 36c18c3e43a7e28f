// Package probe implements fingerprint probing over HTTP.
package probe

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/domain"
)

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 30 * time.Second

// HeadProber probes an endpoint with a metadata-only HEAD request and
// extracts a version fingerprint from the response headers.
//
// Extraction precedence: ETag, then Last-Modified, then empty.
type HeadProber struct {
	client *http.Client
	silent bool
	logger *zap.Logger
}

// NewHeadProber creates a prober with a default HTTP client.
func NewHeadProber(silent bool, logger *zap.Logger) *HeadProber {
	return NewHeadProberWithClient(&http.Client{Timeout: DefaultTimeout}, silent, logger)
}

// NewHeadProberWithClient creates a prober with an injected HTTP client
// (for testing and for hosts with custom transports).
func NewHeadProberWithClient(client *http.Client, silent bool, logger *zap.Logger) *HeadProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeadProber{
		client: client,
		silent: silent,
		logger: logger,
	}
}

// Probe issues a cache-bypassing HEAD request to endpoint.
//
// Probing fails softly: a malformed endpoint, transport error, or
// non-success status yields the empty fingerprint. Nothing propagates
// to the caller; failures are logged unless the prober is silent.
func (p *HeadProber) Probe(ctx context.Context, endpoint string) domain.Fingerprint {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		p.log("failed to build probe request", zap.String("endpoint", endpoint), zap.Error(err))
		return ""
	}

	// Bypass intermediary caches so the fingerprint reflects the
	// currently deployed version, not a stale cached copy.
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log("probe request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log("probe returned non-success status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return ""
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		return domain.Fingerprint(etag)
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		return domain.Fingerprint(lastMod)
	}
	return ""
}

// log logs a diagnostic message unless the prober is silenced.
func (p *HeadProber) log(msg string, fields ...zap.Field) {
	if p.silent {
		return
	}
	p.logger.Warn(msg, fields...)
}
