package gate

import (
	"net/http"
	"strings"

	"github.com/soley-bot/acadex-sub007/internal/config"
)

// HeaderPolicy attaches the fixed security-header set to every response and
// CORS headers to API responses and preflights.
type HeaderPolicy struct {
	production     bool
	allowedOrigins map[string]bool
	allowMethods   string
	allowHeaders   string
	credentials    bool
}

func NewHeaderPolicy(cfg config.CORSConfig, production bool) *HeaderPolicy {
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}
	return &HeaderPolicy{
		production:     production,
		allowedOrigins: origins,
		allowMethods:   strings.Join(cfg.AllowedMethods, ", "),
		allowHeaders:   strings.Join(cfg.AllowedHeaders, ", "),
		credentials:    cfg.AllowCredentials,
	}
}

// ApplySecurity sets the security headers. HSTS is production-only so local
// HTTP development does not pin browsers to TLS.
func (p *HeaderPolicy) ApplySecurity(h http.Header) {
	h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
	if p.production {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

// ApplyCORS echoes the origin only when allow-listed; untrusted origins get
// the literal "null" so the browser refuses the response.
func (p *HeaderPolicy) ApplyCORS(h http.Header, origin string) {
	allowed := "null"
	if origin != "" && p.allowedOrigins[strings.TrimRight(origin, "/")] {
		allowed = origin
	}
	h.Set("Access-Control-Allow-Origin", allowed)
	h.Set("Access-Control-Allow-Methods", p.allowMethods)
	h.Set("Access-Control-Allow-Headers", p.allowHeaders)
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	h.Add("Vary", "Origin")
}
