// Package sha256 provides SHA-256 hashing utilities.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes SHA-256 hex digests. Site adapters use it to derive stable
// job identifiers from offer URLs when the URL itself carries no usable
// external ID.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HashString is a convenience wrapper over Hash for string input.
func (h *Hasher) HashString(s string) (string, error) {
	return h.Hash([]byte(s))
}
