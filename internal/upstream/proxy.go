package upstream

import (
	"io"
	"net/http"
	"strings"

	"github.com/soley-bot/acadex-sub007/internal/observability"
)

// Proxy forwards gated requests to the application upstreams: API-prefixed
// paths go to the API upstream, everything else to the app upstream.
type Proxy struct {
	manager   *Manager
	appName   string
	apiName   string
	apiPrefix string
	metrics   *observability.Metrics
	logger    *observability.Logger
}

func NewProxy(m *Manager, appName, apiName, apiPrefix string, metrics *observability.Metrics, logger *observability.Logger) *Proxy {
	return &Proxy{
		manager:   m,
		appName:   appName,
		apiName:   apiName,
		apiPrefix: apiPrefix,
		metrics:   metrics,
		logger:    logger,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	name := p.appName
	if strings.HasPrefix(req.URL.Path, p.apiPrefix) {
		name = p.apiName
	}
	ups, ok := p.manager.Get(name)
	if !ok || len(ups.Targets) == 0 {
		http.Error(w, "upstream not found", http.StatusBadGateway)
		return
	}
	target := ups.Next()

	outReq := req.Clone(req.Context())
	outReq.URL.Scheme = target.URL.Scheme
	outReq.URL.Host = target.URL.Host
	outReq.URL.Path = singleJoiningSlash(target.URL.Path, req.URL.Path)
	outReq.RequestURI = ""
	outReq.Header = cloneHeader(req.Header)
	removeHopByHopHeaders(outReq.Header)

	resp, err := ups.Client.Do(outReq)
	if err != nil {
		p.metrics.IncUpstreamFailure()
		p.logger.Errorw("upstream request failed", "upstream", name, "target", target.URL.String(), "err", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func singleJoiningSlash(a, b string) string {
	as := strings.HasSuffix(a, "/")
	bs := strings.HasPrefix(b, "/")
	switch {
	case as && bs:
		return a + b[1:]
	case !as && !bs:
		return a + "/" + b
	default:
		return a + b
	}
}
