//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/detector"
	"github.com/staleguard/staleguard/internal/domain"
	"github.com/staleguard/staleguard/internal/navigation"
)

// versionedServer serves a page whose ETag can be flipped mid-test,
// simulating a new deployment being published.
type versionedServer struct {
	mu   sync.Mutex
	etag string
	srv  *httptest.Server
}

func newVersionedServer(etag string) *versionedServer {
	vs := &versionedServer{etag: etag}
	vs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vs.mu.Lock()
		w.Header().Set("ETag", vs.etag)
		vs.mu.Unlock()
	}))
	return vs
}

func (vs *versionedServer) publish(etag string) {
	vs.mu.Lock()
	vs.etag = etag
	vs.mu.Unlock()
}

var _ = Describe("Deployment change watching", func() {
	var (
		server   *versionedServer
		journal  *navigation.Journal
		watcher  *detector.Watcher
		notified chan struct{}
	)

	BeforeEach(func() {
		server = newVersionedServer(`"v1"`)
		journal = navigation.NewJournal("/")
		notified = make(chan struct{}, 16)

		cfg := detector.DefaultConfig(server.srv.URL)
		cfg.Logger = zap.NewNop()
		cfg.Navigation = journal
		cfg.CheckInterval = 25 * time.Millisecond
		cfg.OnUpdateDetected = func() { notified <- struct{}{} }

		var err error
		watcher, err = detector.NewWatcher(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(watcher.Setup(context.Background())).To(Succeed())
	})

	AfterEach(func() {
		watcher.Teardown()
		server.srv.Close()
	})

	It("primes the baseline from the live endpoint", func() {
		Expect(watcher.Baseline()).To(Equal(domain.Fingerprint(`"v1"`)))
		Expect(watcher.State()).To(Equal(domain.StateArmed))
	})

	It("stays quiet while the deployed version is unchanged", func() {
		Consistently(notified, 150*time.Millisecond).ShouldNot(Receive())
	})

	It("notifies once a new version is published", func() {
		server.publish(`"v2"`)

		Eventually(notified, time.Second).Should(Receive())
	})

	It("re-checks on navigation and detects the change immediately", func() {
		server.publish(`"v2"`)

		Expect(watcher.Observer().Push("/orders")).To(Succeed())

		Eventually(notified, 200*time.Millisecond).Should(Receive())
	})

	It("keeps notifying on subsequent checks until the session reloads", func() {
		server.publish(`"v2"`)

		Eventually(notified, time.Second).Should(Receive())
		Eventually(notified, time.Second).Should(Receive())
		Expect(watcher.Baseline()).To(Equal(domain.Fingerprint(`"v1"`)))
	})

	It("re-probes after correlated same-origin asset failures", func() {
		watcher.Teardown()

		// Rebuild without the timer so the correlator is the only trigger.
		cfg := detector.DefaultConfig(server.srv.URL)
		cfg.Logger = zap.NewNop()
		cfg.AssetDebounce = 30 * time.Millisecond
		cfg.OnUpdateDetected = func() { notified <- struct{}{} }

		var err error
		watcher, err = detector.NewWatcher(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(watcher.Setup(context.Background())).To(Succeed())

		server.publish(`"v2"`)

		watcher.ReportAssetFailure(server.srv.URL + "/js/app.js")
		watcher.ReportAssetFailure(server.srv.URL + "/css/app.css")

		Eventually(notified, time.Second).Should(Receive())
	})

	It("tears down cleanly and can be re-armed", func() {
		watcher.Teardown()
		Expect(watcher.State()).To(Equal(domain.StateUninitialized))

		Expect(watcher.Setup(context.Background())).To(Succeed())
		Expect(watcher.State()).To(Equal(domain.StateArmed))
	})
})
