// Package vocab loads the embedded vocabulary pack used by the normalizer,
// classifier, and parser. The pack carries the channel watermark list, the
// breach/spam indicator lists, the allowed breach type enum, and length caps.
// Tests can construct a Pack directly to substitute alternate vocabularies
package vocab

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed vocab.json
var embedded []byte

type limitsBlock struct {
	MaxContentLen int `json:"max_content_len"`
	MaxSourceLen  int `json:"max_source_len"`
	MaxAuthorLen  int `json:"max_author_len"`
	MaxStoreSize  int `json:"max_store_size"`
}

type rawPack struct {
	Version          int            `json:"version"`
	Meta             map[string]any `json:"meta"`
	Watermarks       []string       `json:"watermarks"`
	BreachIndicators []string       `json:"breach_indicators"`
	SpamIndicators   []string       `json:"spam_indicators"`
	AllowedTypes     []string       `json:"allowed_types"`
	DefaultType      string         `json:"default_type"`
	CatchAllType     string         `json:"catch_all_type"`
	Limits           limitsBlock    `json:"limits"`
}

// Pack is the loaded, validated vocabulary
type Pack struct {
	Version          int
	Watermarks       []string
	BreachIndicators []string
	SpamIndicators   []string
	AllowedTypes     []string
	DefaultType      string
	CatchAllType     string

	MaxContentLen int
	MaxSourceLen  int
	MaxAuthorLen  int
	MaxStoreSize  int

	allowed map[string]struct{}
}

// Load parses and validates the embedded vocab.json
func Load() (*Pack, error) {
	return Parse(embedded)
}

// LoadFile parses and validates a vocabulary pack from disk, for deployments
// that override the embedded pack
func LoadFile(path string) (*Pack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: read %q: %w", path, err)
	}
	return Parse(b)
}

// Parse builds a Pack from raw JSON bytes
func Parse(b []byte) (*Pack, error) {
	var rp rawPack
	if err := json.Unmarshal(b, &rp); err != nil {
		return nil, fmt.Errorf("vocab: parse: %w", err)
	}
	p := &Pack{
		Version:          rp.Version,
		Watermarks:       rp.Watermarks,
		BreachIndicators: lowerAll(rp.BreachIndicators),
		SpamIndicators:   lowerAll(rp.SpamIndicators),
		AllowedTypes:     rp.AllowedTypes,
		DefaultType:      rp.DefaultType,
		CatchAllType:     rp.CatchAllType,
		MaxContentLen:    rp.Limits.MaxContentLen,
		MaxSourceLen:     rp.Limits.MaxSourceLen,
		MaxAuthorLen:     rp.Limits.MaxAuthorLen,
		MaxStoreSize:     rp.Limits.MaxStoreSize,
	}
	if err := p.Finalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// Finalize fills derived state and validates invariants.
// Tests building a Pack by hand must call this before use
func (p *Pack) Finalize() error {
	if len(p.BreachIndicators) == 0 {
		return fmt.Errorf("vocab: empty breach indicator list")
	}
	if len(p.AllowedTypes) == 0 {
		return fmt.Errorf("vocab: empty allowed type list")
	}
	if p.MaxContentLen <= 0 || p.MaxSourceLen <= 0 || p.MaxAuthorLen <= 0 {
		return fmt.Errorf("vocab: non-positive length cap")
	}
	if p.MaxStoreSize <= 0 {
		return fmt.Errorf("vocab: non-positive store cap")
	}
	p.allowed = make(map[string]struct{}, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		p.allowed[t] = struct{}{}
	}
	if _, ok := p.allowed[p.DefaultType]; !ok {
		return fmt.Errorf("vocab: default type %q not in allowed set", p.DefaultType)
	}
	if _, ok := p.allowed[p.CatchAllType]; !ok {
		return fmt.Errorf("vocab: catch-all type %q not in allowed set", p.CatchAllType)
	}
	return nil
}

// AllowedType reports whether t is a member of the allowed breach type enum
func (p *Pack) AllowedType(t string) bool {
	_, ok := p.allowed[t]
	return ok
}

// CoerceType returns t when allowed, the catch-all type otherwise
func (p *Pack) CoerceType(t string) string {
	if p.AllowedType(t) {
		return t
	}
	return p.CatchAllType
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
