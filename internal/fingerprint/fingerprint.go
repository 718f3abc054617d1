// Package fingerprint derives the content-addressed identity key for
// uploaded images. Two byte-identical uploads always hash to the same
// fingerprint; any change to the bytes produces a different one.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex-encoded SHA-256 hash of raw image bytes.
type Fingerprint string

// Hash computes the fingerprint for raw image bytes.
func Hash(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Short returns a truncated form suitable for log fields.
func (f Fingerprint) Short() string {
	if len(f) < 12 {
		return string(f)
	}
	return string(f[:12])
}
