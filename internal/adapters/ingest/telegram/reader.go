// Package telegram reads messages from a Telegram channel export file.
// The export is a single JSON object whose "messages" key holds an array of
// message objects; the reader streams that array with a json.Decoder so the
// file never needs to fit in memory at once
package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	perr "breachwatch/internal/platform/errors"
)

// Message is one entry from the export, reduced to the fields the pipeline
// consumes. Text is the concatenation of the entry's text parts
type Message struct {
	ID        int64
	Text      string
	Timestamp time.Time
}

// exportDateLayout is Telegram's export timestamp format (no zone)
const exportDateLayout = "2006-01-02T15:04:05"

// rawMessage mirrors the export entry shape. Telegram emits "text" as either
// a plain string or an array of strings and entity objects; RawText keeps the
// raw bytes so both shapes decode
type rawMessage struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type"`
	Date    string          `json:"date"`
	RawText json.RawMessage `json:"text"`
	Message string          `json:"message"`
}

// Reader streams messages from one export file. Not safe for concurrent use
type Reader struct {
	f       *os.File
	dec     *json.Decoder
	started bool
	skipped int
}

// Open opens path and positions the decoder at the start of the file.
// A missing or unreadable file is a structural failure for the run
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "telegram: open export %q", path)
	}
	return &Reader{f: f, dec: json.NewDecoder(f)}, nil
}

// Skipped reports how many malformed or empty entries were passed over so far
func (r *Reader) Skipped() int { return r.skipped }

// Close releases the underlying file
func (r *Reader) Close() error { return r.f.Close() }

// Next returns the next usable message, skipping entries with no text or an
// unparseable date. io.EOF signals a cleanly exhausted export; any other
// error means the file is malformed
func (r *Reader) Next() (Message, error) {
	if !r.started {
		if err := r.seekMessages(); err != nil {
			return Message{}, err
		}
		r.started = true
	}

	for r.dec.More() {
		var rm rawMessage
		if err := r.dec.Decode(&rm); err != nil {
			return Message{}, perr.Wrap(err, perr.ErrorCodeJSON, "telegram: decode message entry")
		}
		text := rm.text()
		if text == "" {
			r.skipped++
			continue
		}
		ts, err := parseDate(rm.Date)
		if err != nil {
			r.skipped++
			continue
		}
		return Message{ID: rm.ID, Text: text, Timestamp: ts}, nil
	}
	return Message{}, io.EOF
}

// seekMessages advances the decoder past the wrapping object to the opening
// bracket of the "messages" array
func (r *Reader) seekMessages() error {
	tok, err := r.dec.Token()
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "telegram: read export header")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return perr.Newf(perr.ErrorCodeJSON, "telegram: export is not a JSON object (got %v)", tok)
	}

	for {
		tok, err := r.dec.Token()
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "telegram: scan export keys")
		}
		key, ok := tok.(string)
		if !ok {
			return perr.Newf(perr.ErrorCodeJSON, "telegram: export has no messages array")
		}
		if key == "messages" {
			tok, err = r.dec.Token()
			if err != nil {
				return perr.Wrap(err, perr.ErrorCodeJSON, "telegram: read messages array")
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return perr.Newf(perr.ErrorCodeJSON, "telegram: messages is not an array")
			}
			return nil
		}
		// skip this key's value wholesale
		var skip json.RawMessage
		if err := r.dec.Decode(&skip); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "telegram: skip export key %q", key)
		}
	}
}

// text flattens the entry's text into a single string. The "text" field may
// be a string, or an array mixing strings with {"type","text"} entity objects;
// some exports carry the body under "message" instead
func (rm *rawMessage) text() string {
	if len(rm.RawText) > 0 {
		var s string
		if err := json.Unmarshal(rm.RawText, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			var parts []any
			if err := json.Unmarshal(rm.RawText, &parts); err == nil {
				if s := joinParts(parts); s != "" {
					return s
				}
			}
		}
	}
	return rm.Message
}

func joinParts(parts []any) string {
	var out string
	for _, p := range parts {
		switch t := p.(type) {
		case string:
			out += t
		case map[string]any:
			if s, ok := t["text"].(string); ok {
				out += s
			}
		}
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if ts, err := time.Parse(exportDateLayout, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
