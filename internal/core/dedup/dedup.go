// Package dedup merges batches of records into the store with
// first-seen-wins deduplication by content hash
package dedup

import (
	"strings"

	"breachwatch/internal/core/classify"
	"breachwatch/internal/core/record"
)

// Stats summarizes one merge: how many candidates were seen, how many were
// dropped as duplicates or pruned as no-longer-relevant, and how many were
// evicted by the store cap
type Stats struct {
	Existing int
	Incoming int
	Kept     int
	Deduped  int
	Pruned   int
	Evicted  int
}

// Merger combines existing and incoming records.
// The classifier re-checks every record, including already-stored ones, so a
// vocabulary update prunes stale entries on the next run (self-cleaning store)
type Merger struct {
	cls     *classify.Classifier
	maxSize int
}

// New constructs a Merger retaining at most maxSize records per merge
func New(cls *classify.Classifier, maxSize int) *Merger {
	return &Merger{cls: cls, maxSize: maxSize}
}

// Merge returns the deduplicated union of existing and incoming, existing
// first so the earlier record wins every hash collision. Hashes are recomputed
// from content rather than trusted from the input, which heals records whose
// stored hash_id drifted from their content. Neither input slice is mutated
func (m *Merger) Merge(existing, incoming []record.Record) ([]record.Record, Stats) {
	st := Stats{Existing: len(existing), Incoming: len(incoming)}

	out := make([]record.Record, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	absorb := func(recs []record.Record) {
		for _, r := range recs {
			r.Content = strings.TrimSpace(r.Content)
			if r.Content == "" {
				st.Pruned++
				continue
			}
			if !m.cls.IsBreach(r.Content) {
				st.Pruned++
				continue
			}
			r.HashID = record.HashContent(r.Content)
			if _, dup := seen[r.HashID]; dup {
				st.Deduped++
				continue
			}
			seen[r.HashID] = struct{}{}
			out = append(out, r)
		}
	}

	absorb(existing)
	absorb(incoming)

	if m.maxSize > 0 && len(out) > m.maxSize {
		st.Evicted = len(out) - m.maxSize
		out = out[:m.maxSize]
	}
	st.Kept = len(out)
	return out, st
}
