package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"breachwatch/internal/core/record"
	"breachwatch/internal/modkit/repokit"
	perr "breachwatch/internal/platform/errors"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQueryer records Exec calls and replays canned RowsAffected values
type fakeQueryer struct {
	execs    []execCall
	affected []int64
	err      error
}

func (f *fakeQueryer) Exec(_ context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	n := int64(1)
	if len(f.affected) >= len(f.execs) {
		n = f.affected[len(f.execs)-1]
	}
	return fakeTag(n), nil
}

func (f *fakeQueryer) Query(context.Context, string, ...any) (repokit.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQueryer) QueryRow(context.Context, string, ...any) repokit.Row {
	return nil
}

type fakeTag int64

func (t fakeTag) String() string      { return "INSERT" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

func archiveRecs() []record.Record {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []record.Record{
		{
			Source:    "darkforum",
			Content:   "database leak one",
			Type:      "Data leak",
			Author:    "anon",
			MessageID: 11,
			Timestamp: ts,
			HashID:    record.HashContent("database leak one"),
		},
		{
			Source:    "darkforum",
			Content:   "breach two",
			Type:      "Security breach",
			MessageID: 12,
			Timestamp: ts,
			HashID:    record.HashContent("breach two"),
		},
	}
}

func TestArchiveInsertRecords(t *testing.T) {
	q := &fakeQueryer{affected: []int64{1, 0}}
	arch := repokit.MustBind(NewArchiveBinder(), q)

	recs := archiveRecs()
	st, err := arch.InsertRecords(context.Background(), recs)
	if err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	if st.Inserted != 1 || st.Deduped != 1 {
		t.Fatalf("stats = %+v, want 1 inserted / 1 deduped", st)
	}
	if len(q.execs) != 2 {
		t.Fatalf("execs = %d, want 2", len(q.execs))
	}

	sql := q.execs[0].sql
	if !strings.Contains(sql, "INSERT INTO breach_records") {
		t.Fatalf("unexpected insert target: %s", sql)
	}
	if !strings.Contains(sql, "ON CONFLICT (hash_id) DO NOTHING") {
		t.Fatalf("insert is not idempotent on hash_id: %s", sql)
	}

	args := q.execs[0].args
	if len(args) != 7 {
		t.Fatalf("args = %d, want 7", len(args))
	}
	r := recs[0]
	if args[0] != r.HashID || args[1] != r.Source || args[2] != r.Content ||
		args[3] != r.Type || args[4] != r.Author || args[5] != r.MessageID ||
		args[6] != r.Timestamp {
		t.Fatalf("arg order mismatch: %v", args)
	}
}

func TestArchiveInsertRecordsEmpty(t *testing.T) {
	q := &fakeQueryer{}
	arch := repokit.MustBind(NewArchiveBinder(), q)

	st, err := arch.InsertRecords(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	if st.Inserted != 0 || st.Deduped != 0 || len(q.execs) != 0 {
		t.Fatalf("stats = %+v, execs = %d", st, len(q.execs))
	}
}

func TestArchiveInsertRecordsError(t *testing.T) {
	q := &fakeQueryer{err: errors.New("connection reset")}
	arch := repokit.MustBind(NewArchiveBinder(), q)

	_, err := arch.InsertRecords(context.Background(), archiveRecs())
	if err == nil {
		t.Fatal("expected error")
	}
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("code = %v, want DB", perr.CodeOf(err))
	}
}
