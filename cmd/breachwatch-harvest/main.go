// Command breachwatch-harvest runs one harvest pass: read the channel export,
// parse and classify messages, merge into the JSON store, save with backup
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breachwatch/internal/adapters/ingest/telegram"
	"breachwatch/internal/modkit"
	"breachwatch/internal/modkit/module"
	"breachwatch/internal/platform/config"
	"breachwatch/internal/platform/logger"
	"breachwatch/internal/platform/store"
	"breachwatch/internal/services/harvest/domain"
	harvestmod "breachwatch/internal/services/harvest/module"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("harvest")

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := modkit.Deps{Cfg: cfg, Log: *logger.Get()}

	var st *store.Store
	pgCfg := cfg.Prefix("PG_")
	if pgCfg.MayBool("ENABLED", false) {
		var err error
		st, err = store.Open(ctx, store.Config{
			AppName: "breachwatch-harvest",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("URL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
				SlowQueryMs: pgCfg.MayInt("SLOW_QUERY_MS", 250),
			},
		}, store.WithLogger(*logger.Get()))
		if err != nil {
			log.Fatal().Err(err).Msg("open store")
		}
		defer st.Close(ctx)
		deps.PG = st.PG
	}

	hm, err := harvestmod.New(deps, harvestmod.FromConfig(deps))
	if err != nil {
		log.Fatal().Err(err).Msg("build harvest module")
	}
	module.Register(hm.Name(), hm.Ports())

	src, err := telegram.Open(hm.ExportPath())
	if err != nil {
		log.Fatal().Err(err).Msg("open channel export")
	}
	defer src.Close()

	ports, _ := module.PortsAs[harvestmod.Ports](hm.Name())
	stats, err := ports.Runner.RunOnce(ctx, exportSource{src})
	if err != nil {
		log.Fatal().Err(err).Str("run_id", stats.RunID).Msg("harvest run failed")
	}

	log.Info().
		Str("run_id", stats.RunID).
		Int("merged", stats.Merged).
		Dur("elapsed", stats.Elapsed.Round(time.Millisecond)).
		Msg("done")
}

// exportSource adapts the telegram reader to the harvest message port
type exportSource struct {
	r *telegram.Reader
}

func (s exportSource) Next() (domain.RawMessage, error) {
	m, err := s.r.Next()
	if err != nil {
		return domain.RawMessage{}, err
	}
	return domain.RawMessage{ID: m.ID, Text: m.Text, Timestamp: m.Timestamp}, nil
}

func (s exportSource) Skipped() int { return s.r.Skipped() }

func (s exportSource) Close() error { return s.r.Close() }
