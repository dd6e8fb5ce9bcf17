package pg

import (
	"context"
	"strings"

	"breachwatch/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent is one traced query with its outcome
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events from the sql adapter
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer builds a zerolog-backed tracer. The child logger is forced to debug
// level so enabling SQL logging is independent of the root level
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &logTracer{log: ll}
}

type logTracer struct{ log logger.Logger }

func (z *logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", collapseWS(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// collapseWS folds runs of whitespace so multi-line SQL logs on one line
func collapseWS(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		switch r {
		case ' ', '\n', '\t', '\r':
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
		default:
			inRun = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
