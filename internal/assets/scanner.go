// Package assets discovers a page's same-origin static assets and checks
// their availability, producing the load-failure signal the detector
// correlates against probe results.
package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultTimeout bounds a single page fetch or asset check.
const DefaultTimeout = 30 * time.Second

// Scanner extracts script and stylesheet references from a page and
// verifies they still load. Cross-origin references are dropped at
// extraction time; only the page's own assets can feed the tally.
type Scanner struct {
	client *http.Client
	logger *zap.Logger
}

// NewScanner creates a scanner with a default HTTP client.
func NewScanner(logger *zap.Logger) *Scanner {
	return NewScannerWithClient(&http.Client{Timeout: DefaultTimeout}, logger)
}

// NewScannerWithClient creates a scanner with an injected HTTP client.
func NewScannerWithClient(client *http.Client, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{client: client, logger: logger}
}

// Scan fetches pageURL and returns the absolute URLs of its same-origin
// <script src> and <link rel="stylesheet" href> references.
func (s *Scanner) Scan(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var refs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref, ok := assetRef(n); ok {
				if abs := resolveSameOrigin(base, ref); abs != "" {
					refs = append(refs, abs)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return refs, nil
}

// Check verifies each asset with a HEAD request and reports failures
// (transport error or non-success status) to report. Check itself never
// fails; an unreachable asset is a signal, not an error.
func (s *Scanner) Check(ctx context.Context, assetURLs []string, report func(rawURL string)) {
	for _, assetURL := range assetURLs {
		if ctx.Err() != nil {
			return
		}
		if s.loads(ctx, assetURL) {
			continue
		}
		s.logger.Debug("asset load failed", zap.String("asset", assetURL))
		report(assetURL)
	}
}

// loads reports whether a HEAD request to assetURL succeeds.
func (s *Scanner) loads(ctx context.Context, assetURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// assetRef extracts the reference attribute of a script or stylesheet
// element, if the node is one.
func assetRef(n *html.Node) (string, bool) {
	switch n.Data {
	case "script":
		if src := attr(n, "src"); src != "" {
			return src, true
		}
	case "link":
		if strings.EqualFold(attr(n, "rel"), "stylesheet") {
			if href := attr(n, "href"); href != "" {
				return href, true
			}
		}
	}
	return "", false
}

// attr returns the value of the named attribute, or empty.
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// resolveSameOrigin resolves ref against base and returns the absolute
// URL when it shares base's origin, or empty otherwise.
func resolveSameOrigin(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != base.Scheme || abs.Host != base.Host {
		return ""
	}
	return abs.String()
}
