package store

import (
	"context"
	"errors"
	"time"

	"breachwatch/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryTrace forwards query timings to the configured tracer.
// A zero tracer disables all emission
type queryTrace struct {
	tracer pg.QueryTracer
	slowUS int64
}

func (t queryTrace) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	elapsed := time.Since(start).Microseconds()
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsed,
		Err:       err,
		Slow:      t.slowUS >= 0 && elapsed >= t.slowUS,
	})
}

// pgAdapter implements RowQuerier + TxRunner over a pgxpool
type pgAdapter struct {
	p     *pg.PG
	trace queryTrace
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{
		p:     p,
		trace: queryTrace{tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000},
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	a.trace.emit(ctx, sql, args, start, err)
	return cmdTag{ct}, err
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	a.trace.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rowIter{r: rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	// emission waits for Scan so the event carries the scan error
	return scanRow{
		r: a.p.Pool.QueryRow(ctx, sql, args...),
		after: func(scanErr error) {
			a.trace.emit(ctx, sql, args, start, scanErr)
		},
	}
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txQuerier{tx: tx, trace: a.trace}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txQuerier satisfies RowQuerier inside a transaction, with the same tracing
type txQuerier struct {
	tx    pgx.Tx
	trace queryTrace
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.tx.Exec(ctx, sql, args...)
	t.trace.emit(ctx, sql, args, start, err)
	return cmdTag{ct}, err
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.tx.Query(ctx, sql, args...)
	t.trace.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rowIter{r: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return scanRow{
		r: t.tx.QueryRow(ctx, sql, args...),
		after: func(scanErr error) {
			t.trace.emit(ctx, sql, args, start, scanErr)
		},
	}
}

// thin pgx wrappers for the Row/Rows/CommandTag seams

type scanRow struct {
	r     pgx.Row
	after func(error)
}

func (x scanRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rowIter struct{ r pgx.Rows }

func (x rowIter) Next() bool            { return x.r.Next() }
func (x rowIter) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rowIter) Err() error            { return x.r.Err() }
func (x rowIter) Close()                { x.r.Close() }
func (x rowIter) Columns() []string {
	fields := x.r.FieldDescriptions()
	out := make([]string, len(fields))
	for i := range fields {
		out[i] = string(fields[i].Name)
	}
	return out
}

type cmdTag struct{ t pgconn.CommandTag }

func (t cmdTag) String() string      { return t.t.String() }
func (t cmdTag) RowsAffected() int64 { return t.t.RowsAffected() }
