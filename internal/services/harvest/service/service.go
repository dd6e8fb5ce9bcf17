// Package service implements the harvest run: load, parse, merge, save
package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"breachwatch/internal/core/dedup"
	"breachwatch/internal/core/record"
	"breachwatch/internal/core/vocab"
	"breachwatch/internal/modkit/repokit"
	perr "breachwatch/internal/platform/errors"
	"breachwatch/internal/platform/logger"
	"breachwatch/internal/services/harvest/domain"
)

// Service orchestrates one harvest run. Archive is optional: when pg or
// archive is nil the merged batch is persisted to the JSON store only
type Service struct {
	store   domain.StoreRepo
	parser  *record.Parser
	merger  *dedup.Merger
	pg      repokit.TxRunner
	archive repokit.Binder[domain.ArchiveRepo]

	channel string
	limit   int
}

// Options tune a Service beyond its required ports
type Options struct {
	Channel      string
	MessageLimit int
	PG           repokit.TxRunner
	Archive      repokit.Binder[domain.ArchiveRepo]
}

// New builds a Service over the vocabulary pack and the store port
func New(pack *vocab.Pack, store domain.StoreRepo, opt Options) *Service {
	parser := record.NewParser(pack)
	return &Service{
		store:   store,
		parser:  parser,
		merger:  dedup.New(parser.Classifier(), pack.MaxStoreSize),
		pg:      opt.PG,
		archive: opt.Archive,
		channel: opt.Channel,
		limit:   opt.MessageLimit,
	}
}

// RunOnce drains src (up to the message limit), merges the parsed records
// into the store, and saves. A run that finds zero new relevant messages is
// a success; only structural failures (source read, store save, archive
// write) return an error
func (s *Service) RunOnce(ctx context.Context, src domain.MessageSource) (domain.RunStats, error) {
	started := time.Now()
	stats := domain.RunStats{RunID: uuid.NewString()}
	ctx = logger.WithRun(ctx, stats.RunID, s.channel)
	log := logger.C(ctx)

	existing, err := s.store.Load(ctx)
	if err != nil {
		return stats, perr.Wrap(err, perr.ErrorCodeStorage, "harvest: load store")
	}

	incoming, err := s.readBatch(ctx, src, &stats)
	if err != nil {
		return stats, err
	}

	merged, ms := s.merger.Merge(existing, incoming)
	stats.Merged = ms.Kept
	stats.Deduped = ms.Deduped
	stats.Pruned = ms.Pruned
	stats.Evicted = ms.Evicted

	if err := s.store.Save(ctx, merged); err != nil {
		return stats, perr.Wrap(err, perr.ErrorCodeStorage, "harvest: save store")
	}

	if s.pg != nil && s.archive != nil {
		if err := s.archiveRecords(ctx, merged, &stats); err != nil {
			return stats, err
		}
	}

	stats.Elapsed = time.Since(started)
	log.Info().
		Int("fetched", stats.Fetched).
		Int("parsed", stats.Parsed).
		Int("rejected", stats.Rejected).
		Int("skipped", stats.Skipped).
		Int("merged", stats.Merged).
		Int("deduped", stats.Deduped).
		Int("pruned", stats.Pruned).
		Int("evicted", stats.Evicted).
		Int("archived", stats.Archived).
		Dur("elapsed", stats.Elapsed).
		Msg("harvest run complete")
	return stats, nil
}

// readBatch pulls messages from src until EOF or the message limit, parsing
// each into a candidate record. Irrelevant or unparseable messages are
// counted and skipped, never fatal
func (s *Service) readBatch(ctx context.Context, src domain.MessageSource, stats *domain.RunStats) ([]record.Record, error) {
	log := logger.C(ctx)

	var out []record.Record
	for s.limit <= 0 || stats.Fetched < s.limit {
		msg, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeStorage, "harvest: read message source")
		}
		stats.Fetched++

		rec, ok := s.parser.Parse(msg.Text)
		if !ok {
			stats.Rejected++
			continue
		}
		rec.MessageID = msg.ID
		rec.Timestamp = msg.Timestamp.UTC()
		out = append(out, rec)
		stats.Parsed++
	}
	stats.Skipped = src.Skipped()

	log.Debug().
		Int("fetched", stats.Fetched).
		Int("parsed", stats.Parsed).
		Int("rejected", stats.Rejected).
		Msg("batch read")
	return out, nil
}

func (s *Service) archiveRecords(ctx context.Context, recs []record.Record, stats *domain.RunStats) error {
	err := repokit.WithTx(ctx, s.pg, func(q repokit.Queryer) error {
		as, err := s.archive.Bind(q).InsertRecords(ctx, recs)
		if err != nil {
			return err
		}
		stats.Archived = as.Inserted
		return nil
	})
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "harvest: archive records")
	}
	return nil
}
