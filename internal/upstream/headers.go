package upstream

import "net/http"

// Standard hop-by-hop headers that must not be forwarded by proxies.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Proxy-Connection":    {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {}, // RFC spells it TE, but per net/http canonicalization this renders as Te
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func removeHopByHopHeaders(h http.Header) {
	for k := range hopByHopHeaders {
		h.Del(k)
	}
}

func cloneHeader(h http.Header) http.Header {
	dst := make(http.Header, len(h))
	for k, vv := range h {
		vv2 := make([]string, len(vv))
		copy(vv2, vv)
		dst[k] = vv2
	}
	return dst
}

// copyResponseHeaders copies upstream headers without clobbering anything the
// gate already composed (security and CORS headers win over the app's).
func copyResponseHeaders(dst, src http.Header) {
	for k, vv := range src {
		if _, exists := dst[k]; exists {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
