package gate

import (
	"net/http"
	"strings"
)

// UnknownClient is the sentinel key used when no client address headers are
// present.
const UnknownClient = "unknown"

// ClientKey derives a best-effort client identifier from forwarding headers.
// The value is client-influenced and therefore spoofable; that is an accepted
// property of the header-based approach, not something the gate second-guesses.
func ClientKey(h http.Header) string {
	if xff := strings.TrimSpace(h.Get("X-Forwarded-For")); xff != "" {
		first := xff
		if i := strings.Index(xff, ","); i >= 0 {
			first = xff[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
