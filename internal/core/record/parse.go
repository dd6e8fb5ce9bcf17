package record

import (
	"encoding/json"
	"strings"

	"breachwatch/internal/core/classify"
	"breachwatch/internal/core/normalize"
	"breachwatch/internal/core/vocab"
)

// sourceUnknown is the default for records with no usable source field
const sourceUnknown = "Unknown"

// Parser turns raw message text into a validated Record, or nothing.
// All derived fields (truncation, type coercion, hash) are computed here in
// one pass; a Record returned by Parse is never partially valid. The caller
// attaches message id and timestamp from the originating raw message
type Parser struct {
	pack *vocab.Pack
	norm *normalize.Normalizer
	cls  *classify.Classifier
}

// NewParser builds a Parser (and its normalizer and classifier) from the pack
func NewParser(p *vocab.Pack) *Parser {
	return &Parser{
		pack: p,
		norm: normalize.New(p.Watermarks),
		cls:  classify.New(p),
	}
}

// Classifier exposes the parser's classifier for callers that re-check
// relevance during merge. Same vocabulary, same verdicts
func (p *Parser) Classifier() *classify.Classifier { return p.cls }

// Normalizer exposes the parser's normalizer
func (p *Parser) Normalizer() *normalize.Normalizer { return p.norm }

// Parse cleans raw text, attempts a structured parse, falls back to a plain
// text record, and validates the result. ok is false when the input produces
// no storable record: empty after cleaning/truncation, empty content after
// field normalization, or content failing the relevance check. Relevance is
// filtered once here at parse time; the merge stage re-runs the same
// classifier only to self-prune previously stored records
func (p *Parser) Parse(raw string) (Record, bool) {
	clean := p.norm.Clean(raw)

	// truncate before parsing: bounded memory wins over recovering an
	// oversized JSON payload that the cut may have made unparseable
	clean = truncateRunes(clean, p.pack.MaxContentLen)
	if clean == "" {
		return Record{}, false
	}

	var rec Record
	if fields, ok := p.tryJSON(clean); ok {
		rec = p.fromFields(fields, clean)
	} else {
		rec = Record{
			Source:  sourceUnknown,
			Content: p.norm.Flatten(clean),
			Type:    p.pack.DefaultType,
		}
	}

	rec.Content = truncateRunes(rec.Content, p.pack.MaxContentLen)
	if rec.Content == "" {
		return Record{}, false
	}
	if !p.cls.IsBreach(rec.Content) {
		return Record{}, false
	}

	rec.HashID = HashContent(rec.Content)
	return rec, true
}

// tryJSON attempts to interpret s as a JSON mapping. A top-level string is a
// double-encoded payload and gets exactly one re-parse; two attempts total
// bounds work on adversarial input. Any other shape or a parse failure means
// the plain-text path
func (p *Parser) tryJSON(s string) (map[string]any, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, false
		}
		switch t := v.(type) {
		case string:
			s = t
		case map[string]any:
			return t, true
		default:
			return nil, false
		}
	}
	return nil, false
}

// fromFields builds a candidate record from a parsed mapping, applying the
// legacy defaulting and coercion rules
func (p *Parser) fromFields(fields map[string]any, clean string) Record {
	content := stringField(fields, "Content")
	if content == "" {
		content = clean
	}
	source := stringField(fields, "Source")
	if source == "" {
		source = sourceUnknown
	}
	typ := strings.TrimSpace(stringField(fields, "Type"))
	if typ == "" {
		typ = p.pack.DefaultType
	}

	rec := Record{
		Source:  p.norm.Flatten(source),
		Content: p.norm.Flatten(content),
		Type:    p.pack.CoerceType(typ),
		Author:  p.norm.Flatten(stringField(fields, "author")),
	}
	rec.Source = truncateRunes(rec.Source, p.pack.MaxSourceLen)
	if rec.Source == "" {
		rec.Source = sourceUnknown
	}
	rec.Author = truncateRunes(rec.Author, p.pack.MaxAuthorLen)
	return rec
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// truncateRunes caps s at n characters, not bytes, matching the legacy
// store's character-count semantics
func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
