// Package listener owns the data-plane HTTP server lifecycle.
package listener

import (
	"context"
	"net/http"
	"time"

	"github.com/soley-bot/acadex-sub007/internal/observability"
)

type Server struct {
	addr   string
	srv    *http.Server
	logger *observability.Logger
}

func NewServer(addr string, handler http.Handler, logger *observability.Logger) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Infow("gate listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("gate draining", "addr", s.addr)
	return s.srv.Shutdown(ctx)
}
