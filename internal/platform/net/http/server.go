package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"breachwatch/internal/platform/config"
	"breachwatch/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server pairs a chi mux with a stdlib http.Server.
// Construction wires middleware, Run blocks until the listener stops
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer reads the listen address from API_PORT and applies opts to the
// mux before any routes are mounted
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	addr := cfg.MayString("API_PORT", ":4600")
	mux := chi.NewRouter()
	for _, opt := range opts {
		opt(mux)
	}
	return &Server{
		addr: addr,
		mux:  mux,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router exposes the mux behind the platform Router seam
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listen address
func (s *Server) Addr() string { return s.addr }

// Run starts listening and blocks until Shutdown or a listener error.
// ErrServerClosed is the clean-stop case and maps to nil
func (s *Server) Run(ctx context.Context) error {
	logger.Named("http").Info().Str("addr", s.addr).Msg("http listening")
	if err := s.srv.ListenAndServe(); err != stdhttp.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within ctx's deadline
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
