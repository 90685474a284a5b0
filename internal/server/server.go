package server

import (
	"context"
	"net/http"

	"github.com/joblo-ai/backend/internal/config"
)

// Server wraps the stdlib http server with the start/stop lifecycle main
// drives during graceful shutdown.
type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.HttpServer.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HttpServer.Timeout,
			ReadHeaderTimeout: cfg.HttpServer.Timeout,
			WriteTimeout:      cfg.HttpServer.Timeout,
			IdleTimeout:       cfg.HttpServer.IdleTimeout,
		},
	}
}

// Run blocks serving requests until Stop or a listener error.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
