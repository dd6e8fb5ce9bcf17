// Package domain declares the ports and value types of the records read API
package domain

import (
	"context"
	"time"

	"breachwatch/internal/core/record"
)

// SearchInput filters a record search. Zero Limit means the default page size
type SearchInput struct {
	Limit int        `json:"limit" validate:"omitempty,min=1,max=500"`
	Type  string     `json:"type" validate:"omitempty,max=64"`
	Since *time.Time `json:"since" validate:"omitempty"`
}

// SearchResult is one page of matching records, newest first
type SearchResult struct {
	Total   int             `json:"total"`
	Records []record.Record `json:"records"`
}

// Stats summarizes the persisted store
type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
	Newest *time.Time     `json:"newest,omitempty"`
}

// StoreReader is the read side of the persisted store
type StoreReader interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// RecordsPort is the public surface of the records service
type RecordsPort interface {
	Search(ctx context.Context, in SearchInput) (SearchResult, error)
	Stats(ctx context.Context) (Stats, error)
}
