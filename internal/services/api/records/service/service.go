// Package service implements the records read API over the persisted store
package service

import (
	"context"
	"sort"

	perr "breachwatch/internal/platform/errors"

	"breachwatch/internal/core/record"
	"breachwatch/internal/services/api/records/domain"
)

// defaultLimit applies when a search omits limit
const defaultLimit = 50

// Service serves read-only queries over the store. Every call re-reads the
// file; the harvest job may rewrite it between requests and the store is
// small by construction (capped), so a cache buys nothing
type Service struct {
	store domain.StoreReader
}

// New builds a Service over the store reader
func New(store domain.StoreReader) *Service {
	return &Service{store: store}
}

// Search returns records matching in, newest first
func (s *Service) Search(ctx context.Context, in domain.SearchInput) (domain.SearchResult, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return domain.SearchResult{}, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	matched := make([]record.Record, 0, limit)
	total := 0
	for _, r := range recs {
		if in.Type != "" && r.Type != in.Type {
			continue
		}
		if in.Since != nil && r.Timestamp.Before(*in.Since) {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, r)
		}
	}
	return domain.SearchResult{Total: total, Records: matched}, nil
}

// Stats aggregates the full store
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	recs, err := s.load(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	st := domain.Stats{Total: len(recs), ByType: map[string]int{}}
	for i := range recs {
		st.ByType[recs[i].Type]++
		if st.Newest == nil || recs[i].Timestamp.After(*st.Newest) {
			ts := recs[i].Timestamp
			st.Newest = &ts
		}
	}
	return st, nil
}

// load reads the store and guarantees newest-first ordering even when the
// file was written by an older tool that did not sort
func (s *Service) load(ctx context.Context) ([]record.Record, error) {
	recs, err := s.store.Load(ctx)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "records: load store")
	}
	if !sort.SliceIsSorted(recs, newestFirst(recs)) {
		sort.SliceStable(recs, newestFirst(recs))
	}
	return recs, nil
}

func newestFirst(recs []record.Record) func(i, j int) bool {
	return func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	}
}
