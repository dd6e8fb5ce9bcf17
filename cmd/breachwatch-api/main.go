// Command breachwatch-api serves the read-only records API over the
// persisted store
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"breachwatch/internal/modkit"
	"breachwatch/internal/modkit/module"
	"breachwatch/internal/platform/config"
	"breachwatch/internal/platform/logger"
	phttp "breachwatch/internal/platform/net/http"
	"breachwatch/internal/platform/net/middleware"
	recordsmod "breachwatch/internal/services/api/records/module"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("api")

	cfg := config.New()
	deps := modkit.Deps{Cfg: cfg, Log: *logger.Get()}

	srv := phttp.NewServer(cfg, func(m *chi.Mux) {
		m.Use(chimw.RequestID)
		m.Use(middleware.RecoverJSON)
		m.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}))
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.MayCSV("API_CORS_ORIGINS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	})

	rm := recordsmod.New(deps, recordsmod.FromConfig(deps))
	module.Register(rm.Name(), rm.Ports())
	rm.MountRoutes(srv.Router())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
		log.Info().Msg("stopped")
	}
}
