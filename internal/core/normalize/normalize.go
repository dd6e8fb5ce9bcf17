// Package normalize provides the deterministic text cleaner applied to every
// channel message before parsing and classification
// Pipeline order
// 1 UTF-8 repair drop invalid bytes and control characters
// 2 Remove zero-width and other format characters
// 3 Remove channel watermark substrings (exact, case-sensitive)
// 4 Replace literal escape sequences \n and \" with space and quote
// 5 Strip the denylist characters < > " '
// 6 Trim leading and trailing whitespace
//
// Steps 4 and 5 would destroy a JSON payload, so the parser runs Clean (steps
// 1-3, 6) before attempting a structured parse and applies Flatten (steps 4-6)
// to the extracted field values and to the plain-text fallback. Normalize is
// the full pipeline for callers that never parse
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Normalizer is concurrency safe when used with the pool below
type Normalizer struct {
	watermarks []string
}

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// strip format chars ZWJ ZWNJ FEFF variation selectors etc
		return runes.Remove(runes.In(unicode.Cf))
	},
}

// denylist characters stripped to reduce injection surface downstream
const denylist = `<>"'`

// New constructs a Normalizer with the given watermark substrings
func New(watermarks []string) *Normalizer {
	return &Normalizer{watermarks: watermarks}
}

// Clean repairs encoding, drops format characters, removes watermarks, and trims.
// It preserves quotes and escapes so the result is still parseable as JSON
func (n *Normalizer) Clean(s string) string {
	if s == "" {
		return ""
	}

	s = Sanitize(s)

	// repair UTF-8 then drop format chars via pooled chain
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	s = ns

	for _, w := range n.watermarks {
		s = strings.ReplaceAll(s, w, "")
	}

	return strings.TrimSpace(s)
}

// Flatten replaces literal escape sequences, strips the denylist characters,
// and trims. Applied to field values after parsing, never to raw JSON
func (n *Normalizer) Flatten(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, `\"`, `"`)

	if strings.ContainsAny(s, denylist) {
		var b strings.Builder
		b.Grow(len(s))
		for _, r := range s {
			if strings.ContainsRune(denylist, r) {
				continue
			}
			b.WriteRune(r)
		}
		s = b.String()
	}

	return strings.TrimSpace(s)
}

// Normalize runs the full pipeline described in the package comment
func (n *Normalizer) Normalize(s string) string {
	return n.Flatten(n.Clean(s))
}
