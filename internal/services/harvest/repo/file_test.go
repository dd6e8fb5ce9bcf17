package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"breachwatch/internal/core/record"
	"breachwatch/internal/platform/testkit"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data.json"))
}

func mkRec(content string, ts time.Time) record.Record {
	return record.Record{
		Source:    "test",
		Content:   content,
		Type:      "Data leak",
		Timestamp: ts,
		HashID:    record.HashContent(content),
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	fs := tempStore(t)
	recs, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("len = %d, want 0", len(recs))
	}
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := testkit.WriteFile(t, dir, "data.json", "{not json")
	fs := NewFileStore(path)

	recs, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("len = %d, want 0", len(recs))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := tempStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	in := []record.Record{
		mkRec("database leak one", now.Add(-time.Hour)),
		mkRec("breach two", now),
	}
	if err := fs.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	// newest first on disk
	if out[0].Content != "breach two" || out[1].Content != "database leak one" {
		t.Fatalf("order = %q, %q", out[0].Content, out[1].Content)
	}
}

func TestSaveWritesBackup(t *testing.T) {
	fs := tempStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []record.Record{mkRec("database leak one", now)}
	if err := fs.Save(ctx, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, err := os.Stat(fs.BackupPath()); !os.IsNotExist(err) {
		t.Fatal("no backup expected before a pre-existing store")
	}

	second := []record.Record{mkRec("database leak one", now), mkRec("breach two", now)}
	if err := fs.Save(ctx, second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	b, err := os.ReadFile(fs.BackupPath())
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var backed []record.Record
	if err := json.Unmarshal(b, &backed); err != nil {
		t.Fatalf("backup not valid JSON: %v", err)
	}
	if len(backed) != 1 || backed[0].Content != "database leak one" {
		t.Fatalf("backup holds %+v, want the pre-write state", backed)
	}
}

func TestSaveEmptyStoreIsArray(t *testing.T) {
	fs := tempStore(t)
	if err := fs.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != "[]" {
		t.Fatalf("empty store = %q, want []", got)
	}
}

func TestSaveDoesNotEscapeHTML(t *testing.T) {
	fs := tempStore(t)
	in := []record.Record{mkRec("a&b", time.Now().UTC())}
	if err := fs.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	testkit.MustContain(t, string(b), "a&b")
	if strings.Contains(string(b), "\\u0026") {
		t.Fatal("HTML escaping leaked into the store file")
	}
}

func TestSaveDoesNotMutateInput(t *testing.T) {
	fs := tempStore(t)
	now := time.Now().UTC()
	in := []record.Record{
		mkRec("oldest", now.Add(-time.Hour)),
		mkRec("newest", now),
	}
	if err := fs.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if in[0].Content != "oldest" || in[1].Content != "newest" {
		t.Fatal("Save reordered the caller's slice")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	fs := tempStore(t)
	if err := fs.Save(context.Background(), []record.Record{mkRec("database leak", time.Now())}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(fs.Path()))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".store-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
