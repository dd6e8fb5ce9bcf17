// Package domain declares the ports and value types of the harvest service
package domain

import (
	"context"
	"time"

	"breachwatch/internal/core/record"
)

// RawMessage is one channel message before parsing
type RawMessage struct {
	ID        int64
	Text      string
	Timestamp time.Time
}

// MessageSource yields raw messages one at a time. Next returns io.EOF when
// the source is exhausted; any other error aborts the run. Skipped reports
// how many malformed or empty entries the source passed over so far
type MessageSource interface {
	Next() (RawMessage, error)
	Skipped() int
	Close() error
}

// StoreRepo is the persisted record store
type StoreRepo interface {
	// Load returns the current store contents, empty when absent or corrupt
	Load(ctx context.Context) ([]record.Record, error)

	// Save persists recs, preserving the previous contents as a backup
	Save(ctx context.Context, recs []record.Record) error
}

// ArchiveStats counts the outcome of one archive write
type ArchiveStats struct {
	Inserted int
	Deduped  int
}

// ArchiveRepo mirrors merged records into a durable secondary store
type ArchiveRepo interface {
	InsertRecords(ctx context.Context, recs []record.Record) (ArchiveStats, error)
}

// RunStats summarizes one harvest run
type RunStats struct {
	RunID    string
	Fetched  int
	Parsed   int
	Rejected int
	Skipped  int
	Merged   int
	Deduped  int
	Pruned   int
	Evicted  int
	Archived int
	Elapsed  time.Duration
}

// RunnerPort is the public surface of the harvest service
type RunnerPort interface {
	RunOnce(ctx context.Context, src MessageSource) (RunStats, error)
}
