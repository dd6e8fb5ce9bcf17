// Package record defines the breach report record and the parser that turns
// raw channel text into validated records
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// hashHexLen is the number of hex characters kept from the content digest.
// Changing it (or the hash input) silently re-identifies previously seen
// content, so it is fixed here rather than configurable
const hashHexLen = 16

// Record is one normalized breach report.
// Wire casing matches the legacy store schema: Content/Source/Type are
// capitalized, internal fields are lowercase. Do not rename the JSON keys
type Record struct {
	Source    string    `json:"Source"`
	Content   string    `json:"Content"`
	Type      string    `json:"Type"`
	Author    string    `json:"author,omitempty"`
	MessageID int64     `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	HashID    string    `json:"hash_id"`
}

// HashContent returns the deduplication key for a content string: the first
// 16 hex characters of SHA-256 over the UTF-8 bytes of content. The digest is
// a pure function of content only; source is deliberately excluded so a later
// source correction does not duplicate an already-stored report
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:hashHexLen]
}
