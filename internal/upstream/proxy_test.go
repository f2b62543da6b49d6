package upstream

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/soley-bot/acadex-sub007/internal/config"
	"github.com/soley-bot/acadex-sub007/internal/observability"
)

func newTestProxy(t *testing.T, backend http.Handler) *Proxy {
	t.Helper()
	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	m, err := NewManager([]config.UpstreamConfig{
		{Name: "app", Targets: []string{be.URL}, Timeout: 2000},
	})
	if err != nil {
		t.Fatalf("upstream manager: %v", err)
	}
	return NewProxy(m, "app", "app", "/api", observability.NewMetrics(), observability.NewNopLogger())
}

func TestProxyPassThrough(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App", "1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("hello " + r.URL.Path))
	})
	p := newTestProxy(t, backend)

	req := httptest.NewRequest(http.MethodGet, "http://gate/courses/42", nil)
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Body.String() != "hello /courses/42" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if rec.Header().Get("X-App") != "1" {
		t.Fatal("upstream header not forwarded")
	}
}

func TestProxyDoesNotClobberComposedHeaders(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Frame-Options", "ALLOWALL")
		w.WriteHeader(http.StatusOK)
	})
	p := newTestProxy(t, backend)

	req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Frame-Options", "DENY") // composed by the gate
	p.ServeHTTP(rec, req)

	if got := rec.Header().Values("X-Frame-Options"); len(got) != 1 || got[0] != "DENY" {
		t.Fatalf("composed header clobbered: %v", got)
	}
}

func TestProxyStripsHopByHopHeaders(t *testing.T) {
	var sawSecret atomic.Bool
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Proxy-Authorization") != "" {
			sawSecret.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	})
	p := newTestProxy(t, backend)

	req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
	req.Header.Set("Proxy-Authorization", "secret")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if sawSecret.Load() {
		t.Fatal("hop-by-hop header leaked upstream")
	}
}

func TestProxyBadGateway(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := be.URL
	be.Close()

	m, err := NewManager([]config.UpstreamConfig{{Name: "app", Targets: []string{url}, Timeout: 500}})
	if err != nil {
		t.Fatalf("upstream manager: %v", err)
	}
	p := NewProxy(m, "app", "app", "/api", observability.NewMetrics(), observability.NewNopLogger())

	req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestRoundRobinAcrossTargets(t *testing.T) {
	var a, b atomic.Int64
	beA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { a.Add(1) }))
	t.Cleanup(beA.Close)
	beB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { b.Add(1) }))
	t.Cleanup(beB.Close)

	m, err := NewManager([]config.UpstreamConfig{
		{Name: "app", Targets: []string{beA.URL, beB.URL}, Timeout: 2000},
	})
	if err != nil {
		t.Fatalf("upstream manager: %v", err)
	}
	p := NewProxy(m, "app", "app", "/api", observability.NewMetrics(), observability.NewNopLogger())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
		p.ServeHTTP(httptest.NewRecorder(), req)
	}
	if a.Load() != 3 || b.Load() != 3 {
		t.Fatalf("uneven distribution: a=%d b=%d", a.Load(), b.Load())
	}
}
