package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soley-bot/acadex-sub007/internal/observability"
)

func TestAccessLogAssignsRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := AccessLog(observability.NewNopLogger(), next)

	req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("request id missing from context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("response header %q != context id %q", rec.Header().Get("X-Request-ID"), seen)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status not propagated: %d", rec.Code)
	}
}

func TestAccessLogKeepsClientRequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := AccessLog(observability.NewNopLogger(), next)

	req := httptest.NewRequest(http.MethodGet, "http://gate/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("client request id replaced: %q", rec.Header().Get("X-Request-ID"))
	}
}
