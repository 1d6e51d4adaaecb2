// Package idgen mints short record identifiers for persisted chat files.
//
// The token is a labeling convenience, not a uniqueness guarantee: record
// identity for reconciliation is structural (message content and position),
// so collisions are tolerated. The time component is coarse on purpose so
// the same content re-captured within the same minute maps to the same name.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenLen is the length of a record identifier in hex characters.
const TokenLen = 8

// NewID derives an 8-character lowercase hex token from the capture content
// and a minute-granularity time component. Deterministic for a given
// (content, minute) pair; captures separated in time produce different tokens
// with high probability.
func NewID(content string, at time.Time) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte(at.UTC().Format("200601021504")))
	return hex.EncodeToString(h.Sum(nil))[:TokenLen]
}
