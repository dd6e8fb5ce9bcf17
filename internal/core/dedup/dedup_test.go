package dedup

import (
	"fmt"
	"testing"
	"time"

	"breachwatch/internal/core/classify"
	"breachwatch/internal/core/record"
	"breachwatch/internal/core/vocab"
)

func testMerger(t *testing.T, maxSize int) *Merger {
	t.Helper()
	p := &vocab.Pack{
		BreachIndicators: []string{"leak", "breach", "database"},
		SpamIndicators:   []string{"buy", "subscribe"},
		AllowedTypes:     []string{"Data leak", "Other"},
		DefaultType:      "Data leak",
		CatchAllType:     "Other",
		MaxContentLen:    2000,
		MaxSourceLen:     500,
		MaxAuthorLen:     100,
		MaxStoreSize:     maxSize,
	}
	if err := p.Finalize(); err != nil {
		t.Fatalf("finalize pack: %v", err)
	}
	return New(classify.New(p), maxSize)
}

func rec(content, source string, ts time.Time) record.Record {
	return record.Record{
		Source:    source,
		Content:   content,
		Type:      "Data leak",
		Timestamp: ts,
		HashID:    record.HashContent(content),
	}
}

func TestMergeFirstSeenWins(t *testing.T) {
	m := testMerger(t, 100)
	now := time.Now().UTC()

	existing := []record.Record{rec("database leak at acme", "old-source", now.Add(-time.Hour))}
	incoming := []record.Record{rec("database leak at acme", "new-source", now)}

	out, st := m.Merge(existing, incoming)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].Source != "old-source" {
		t.Fatalf("Source = %q, existing record must win", out[0].Source)
	}
	if st.Deduped != 1 || st.Kept != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestMergeIdempotent(t *testing.T) {
	m := testMerger(t, 100)
	now := time.Now().UTC()

	incoming := []record.Record{
		rec("database leak one", "a", now),
		rec("breach two", "b", now),
	}

	once, _ := m.Merge(nil, incoming)
	twice, st := m.Merge(once, incoming)
	if len(twice) != len(once) {
		t.Fatalf("second merge grew the store: %d vs %d", len(twice), len(once))
	}
	if st.Deduped != len(incoming) {
		t.Fatalf("Deduped = %d, want %d", st.Deduped, len(incoming))
	}
	for i := range once {
		if twice[i] != once[i] {
			t.Fatalf("record %d changed across merges", i)
		}
	}
}

func TestMergePrunesIrrelevantAndEmpty(t *testing.T) {
	m := testMerger(t, 100)
	now := time.Now().UTC()

	existing := []record.Record{
		rec("database leak kept", "a", now),
		rec("buy now subscribe", "b", now), // stored by an older vocabulary
		rec("   ", "c", now),
	}

	out, st := m.Merge(existing, nil)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1 (got %+v)", len(out), out)
	}
	if out[0].Content != "database leak kept" {
		t.Fatalf("wrong survivor: %q", out[0].Content)
	}
	if st.Pruned != 2 {
		t.Fatalf("Pruned = %d, want 2", st.Pruned)
	}
}

func TestMergeRecomputesHash(t *testing.T) {
	m := testMerger(t, 100)

	r := rec("database leak at acme", "a", time.Now())
	r.HashID = "deadbeefdeadbeef" // drifted

	out, _ := m.Merge([]record.Record{r}, nil)
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	if want := record.HashContent(r.Content); out[0].HashID != want {
		t.Fatalf("HashID = %q, want %q", out[0].HashID, want)
	}
}

func TestMergeEnforcesCap(t *testing.T) {
	const maxSize = 5
	m := testMerger(t, maxSize)
	now := time.Now().UTC()

	var existing, incoming []record.Record
	for i := 0; i < 4; i++ {
		existing = append(existing, rec(fmt.Sprintf("database leak %d", i), "a", now))
	}
	for i := 0; i < 4; i++ {
		incoming = append(incoming, rec(fmt.Sprintf("breach report %d", i), "b", now))
	}

	out, st := m.Merge(existing, incoming)
	if len(out) != maxSize {
		t.Fatalf("len = %d, want %d", len(out), maxSize)
	}
	if st.Evicted != 3 {
		t.Fatalf("Evicted = %d, want 3", st.Evicted)
	}
	// existing records are retained in preference to overflow
	for i := 0; i < 4; i++ {
		if out[i].Content != existing[i].Content {
			t.Fatalf("existing record %d displaced", i)
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	m := testMerger(t, 100)
	now := time.Now().UTC()

	existing := []record.Record{rec("database leak one", "a", now)}
	incoming := []record.Record{rec("breach two", "b", now)}
	e0, i0 := existing[0], incoming[0]

	m.Merge(existing, incoming)
	if existing[0] != e0 || incoming[0] != i0 {
		t.Fatal("Merge mutated an input slice")
	}
}
