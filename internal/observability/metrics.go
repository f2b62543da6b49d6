package observability

import (
	"net/http"
	"strconv"
	"sync/atomic"
)

// Metrics counts gate outcomes. Exposed as Prometheus text on the admin plane.
type Metrics struct {
	totalRequests    atomic.Int64
	throttled        atomic.Int64
	loginRedirects   atomic.Int64
	unauthorizedHits atomic.Int64
	authFailures     atomic.Int64
	upstreamFailures atomic.Int64
}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) IncRequests()        { m.totalRequests.Add(1) }
func (m *Metrics) IncThrottled()       { m.throttled.Add(1) }
func (m *Metrics) IncLoginRedirect()   { m.loginRedirects.Add(1) }
func (m *Metrics) IncUnauthorized()    { m.unauthorizedHits.Add(1) }
func (m *Metrics) IncAuthFailure()     { m.authFailures.Add(1) }
func (m *Metrics) IncUpstreamFailure() { m.upstreamFailures.Add(1) }

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(
			counter("acadex_gate_total_requests", "Total requests handled", m.totalRequests.Load()) +
				counter("acadex_gate_throttled_total", "Requests rejected by the rate limiter", m.throttled.Load()) +
				counter("acadex_gate_login_redirects_total", "Requests redirected to login", m.loginRedirects.Load()) +
				counter("acadex_gate_unauthorized_total", "Requests redirected to the unauthorized page", m.unauthorizedHits.Load()) +
				counter("acadex_gate_auth_failures_total", "Identity resolution failures", m.authFailures.Load()) +
				counter("acadex_gate_upstream_failures_total", "Upstream proxy failures", m.upstreamFailures.Load()),
		))
	})
}

func counter(name, help string, v int64) string {
	return "# HELP " + name + " " + help + "\n" +
		"# TYPE " + name + " counter\n" +
		name + " " + strconv.FormatInt(v, 10) + "\n"
}
