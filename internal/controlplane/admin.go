package controlplane

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soley-bot/acadex-sub007/internal/config"
	"github.com/soley-bot/acadex-sub007/internal/observability"
)

// NewRouter builds the admin plane: health, metrics, and a redacted config
// dump. It listens on a separate address and is never exposed publicly.
func NewRouter(metrics *observability.Metrics, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/config", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(redact(cfg))
	})
	return r
}

// redact strips credentials before the config leaves the process.
func redact(cfg *config.Config) config.Config {
	c := *cfg
	if c.Redis.Password != "" {
		c.Redis.Password = "***"
	}
	c.Auth.PublicKeyPEM = ""
	return c
}
