// Package gate implements the request-gating middleware: per-client rate
// limiting on API paths, route classification, identity resolution, the
// allow-or-redirect access decision, and response header composition.
package gate

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soley-bot/acadex-sub007/internal/auth"
	"github.com/soley-bot/acadex-sub007/internal/config"
	"github.com/soley-bot/acadex-sub007/internal/observability"
	"github.com/soley-bot/acadex-sub007/internal/ratelimit"
)

// Identity headers forwarded to the application. Client-supplied copies are
// stripped so the app can trust them.
const (
	UserHeader = "X-Acadex-User"
	RoleHeader = "X-Acadex-Role"
)

// Gate wires the gating stages in front of an inner handler.
type Gate struct {
	apiPrefix    string
	skipPrefixes []string
	classifier   *Classifier
	engine       *Engine
	limiter      *ratelimit.Limiter
	resolver     *auth.CachedResolver
	headers      *HeaderPolicy
	metrics      *observability.Metrics
	logger       *observability.Logger
}

func New(cfg config.GateConfig, limiter *ratelimit.Limiter, resolver *auth.CachedResolver, headers *HeaderPolicy, metrics *observability.Metrics, logger *observability.Logger) *Gate {
	return &Gate{
		apiPrefix:    cfg.APIPrefix,
		skipPrefixes: cfg.SkipPrefixes,
		classifier:   NewClassifier(cfg.AdminPrefix, cfg.ProtectedPaths),
		engine:       NewEngine(cfg.LoginPath, cfg.UnauthorizedPath),
		limiter:      limiter,
		resolver:     resolver,
		headers:      headers,
		metrics:      metrics,
		logger:       logger,
	}
}

// Middleware returns the gating handler wrapping next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Static asset classes never pass through the gating logic.
		for _, p := range g.skipPrefixes {
			if strings.HasPrefix(path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}

		g.metrics.IncRequests()
		isAPI := strings.HasPrefix(path, g.apiPrefix)
		origin := r.Header.Get("Origin")

		// Preflights short-circuit before any auth or rate-limit logic.
		if r.Method == http.MethodOptions {
			g.headers.ApplySecurity(w.Header())
			g.headers.ApplyCORS(w.Header(), origin)
			w.WriteHeader(http.StatusOK)
			return
		}

		if isAPI && !g.checkRateLimit(w, r, origin) {
			return
		}

		class := g.classifier.Classify(path)

		// The app must never see client-forged identity headers.
		r.Header.Del(UserHeader)
		r.Header.Del(RoleHeader)

		if class != Public {
			user, role, err := g.resolver.User(r.Context(), path, r.Header.Get("Cookie"))
			var d Decision
			if err != nil {
				g.metrics.IncAuthFailure()
				g.logger.Errorw("identity resolution failed", "path", path, "err", err)
				d = g.engine.OnResolverFailure(class, path)
			} else {
				d = g.engine.Decide(class, user, role, path)
			}
			if d.Redirect {
				switch d.Reason {
				case ReasonNotAdmin:
					g.metrics.IncUnauthorized()
				default:
					g.metrics.IncLoginRedirect()
				}
				g.headers.ApplySecurity(w.Header())
				http.Redirect(w, r, d.Target, http.StatusFound)
				return
			}
			if user != nil {
				r = r.WithContext(WithIdentity(r.Context(), user, role))
				r.Header.Set(UserHeader, user.ID)
				r.Header.Set(RoleHeader, role)
			}
		}

		g.headers.ApplySecurity(w.Header())
		if isAPI {
			g.headers.ApplyCORS(w.Header(), origin)
		}
		next.ServeHTTP(w, r)
	})
}

// checkRateLimit applies the fixed-window budget to API traffic. A store
// failure fails open: throttling is a convenience, not a gate that may take
// the API down with it.
func (g *Gate) checkRateLimit(w http.ResponseWriter, r *http.Request, origin string) bool {
	key := ClientKey(r.Header)
	res, err := g.limiter.Check(r.Context(), key)
	if err != nil {
		g.logger.Errorw("rate limit store failure", "key", key, "err", err)
		return true
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))
	if res.Allowed {
		return true
	}

	g.metrics.IncThrottled()
	g.headers.ApplySecurity(h)
	g.headers.ApplyCORS(h, origin)
	retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	h.Set("Retry-After", strconv.Itoa(retryAfter))
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":     "Too many requests",
		"resetTime": res.ResetAt.UnixMilli(),
	})
	return false
}
