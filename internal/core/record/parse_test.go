package record

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"breachwatch/internal/core/vocab"
)

func loadPack(t *testing.T) *vocab.Pack {
	t.Helper()
	p, err := vocab.Load()
	if err != nil {
		t.Fatalf("load vocab: %v", err)
	}
	return p
}

func TestParseStructuredJSON(t *testing.T) {
	p := NewParser(loadPack(t))

	raw := `{"Content": "Database leak exposed user credentials", "Source": "darkweb forum", "Type": "Data leak", "author": "anon"}`
	rec, ok := p.Parse(raw)
	if !ok {
		t.Fatal("expected record, got rejection")
	}
	if rec.Content != "Database leak exposed user credentials" {
		t.Fatalf("Content = %q", rec.Content)
	}
	if rec.Source != "darkweb forum" {
		t.Fatalf("Source = %q", rec.Source)
	}
	if rec.Type != "Data leak" {
		t.Fatalf("Type = %q", rec.Type)
	}
	if rec.Author != "anon" {
		t.Fatalf("Author = %q", rec.Author)
	}
	if rec.HashID != HashContent(rec.Content) {
		t.Fatalf("HashID = %q", rec.HashID)
	}
	if rec.MessageID != 0 || !rec.Timestamp.IsZero() {
		t.Fatal("parser must not set message id or timestamp")
	}
}

func TestParsePlainTextFallback(t *testing.T) {
	p := NewParser(loadPack(t))

	rec, ok := p.Parse("Massive database breach, 500k customer records exposed")
	if !ok {
		t.Fatal("expected record, got rejection")
	}
	if rec.Source != "Unknown" {
		t.Fatalf("Source = %q, want Unknown", rec.Source)
	}
	if rec.Type != "Data leak" {
		t.Fatalf("Type = %q, want default", rec.Type)
	}
	if rec.Content != "Massive database breach, 500k customer records exposed" {
		t.Fatalf("Content = %q", rec.Content)
	}
}

func TestParseRejectsSpam(t *testing.T) {
	p := NewParser(loadPack(t))

	if _, ok := p.Parse("Buy premium now! Subscribe to our channel for discount offers"); ok {
		t.Fatal("spam message must be rejected")
	}
}

func TestParseStripsWatermark(t *testing.T) {
	p := NewParser(loadPack(t))

	raw := "Database leak exposed credentials **🔹 ****t.me/breachdetector**** 🔹**"
	rec, ok := p.Parse(raw)
	if !ok {
		t.Fatal("expected record, got rejection")
	}
	if strings.Contains(rec.Content, "t.me") || strings.Contains(rec.Content, "🔹") {
		t.Fatalf("watermark leaked into content: %q", rec.Content)
	}
	if rec.Content != "Database leak exposed credentials" {
		t.Fatalf("Content = %q", rec.Content)
	}
}

func TestParseDoubleEncodedJSON(t *testing.T) {
	p := NewParser(loadPack(t))

	inner := map[string]string{
		"Content": "Password database leak at hosting provider",
		"Source":  "darkforum",
	}
	innerJSON, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := json.Marshal(string(innerJSON))
	if err != nil {
		t.Fatal(err)
	}

	rec, ok := p.Parse(string(outer))
	if !ok {
		t.Fatal("expected record, got rejection")
	}
	if rec.Content != inner["Content"] {
		t.Fatalf("Content = %q", rec.Content)
	}
	if rec.Source != "darkforum" {
		t.Fatalf("Source = %q", rec.Source)
	}
}

func TestParseTripleEncodedFallsBackToPlainText(t *testing.T) {
	p := NewParser(loadPack(t))

	inner := `{"Content": "database leak"}`
	s := inner
	for i := 0; i < 2; i++ {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		s = string(b)
	}

	// two string layers exceed the single re-parse allowance, so the raw
	// text is treated as plain content
	rec, ok := p.Parse(s)
	if !ok {
		t.Fatal("expected plain-text record")
	}
	if rec.Source != "Unknown" {
		t.Fatalf("Source = %q, want Unknown", rec.Source)
	}
}

func TestParseCoercesUnknownType(t *testing.T) {
	p := NewParser(loadPack(t))

	raw := `{"Content": "Database leak exposed credentials", "Type": "Carding"}`
	rec, ok := p.Parse(raw)
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Type != "Other" {
		t.Fatalf("Type = %q, want Other", rec.Type)
	}
}

func TestParseDefaultsMissingFields(t *testing.T) {
	p := NewParser(loadPack(t))

	raw := `{"Content": "Database leak exposed credentials"}`
	rec, ok := p.Parse(raw)
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Source != "Unknown" || rec.Type != "Data leak" || rec.Author != "" {
		t.Fatalf("defaults = %q/%q/%q", rec.Source, rec.Type, rec.Author)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	p := NewParser(loadPack(t))

	for _, raw := range []string{"", "   ", "\n\t"} {
		if _, ok := p.Parse(raw); ok {
			t.Fatalf("Parse(%q) should reject", raw)
		}
	}
}

func TestParseTruncatesOversizedContent(t *testing.T) {
	pack := loadPack(t)
	p := NewParser(pack)

	raw := "database leak credentials exposed " + strings.Repeat("x", pack.MaxContentLen*2)
	rec, ok := p.Parse(raw)
	if !ok {
		t.Fatal("expected record")
	}
	if n := len([]rune(rec.Content)); n > pack.MaxContentLen {
		t.Fatalf("content length %d exceeds cap %d", n, pack.MaxContentLen)
	}
}

func TestHashContent(t *testing.T) {
	h := HashContent("database leak")
	if len(h) != 16 {
		t.Fatalf("hash length = %d, want 16", len(h))
	}
	if h != HashContent("database leak") {
		t.Fatal("hash not deterministic")
	}
	if h == HashContent("database leak ") {
		t.Fatal("distinct content must hash differently")
	}
	for _, c := range h {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("non-hex character %q in hash", c)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := Record{
		Source:    "darkforum",
		Content:   "database leak of customer records",
		Type:      "Data leak",
		Author:    "anon",
		MessageID: 42,
		Timestamp: ts,
		HashID:    HashContent("database leak of customer records"),
	}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	// legacy wire casing must survive
	for _, key := range []string{`"Content"`, `"Source"`, `"Type"`, `"author"`, `"message_id"`, `"timestamp"`, `"hash_id"`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("marshal lost key %s: %s", key, b)
		}
	}

	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}
