package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashParts hashes the parts joined by a NUL separator, so ("ab", "c")
// and ("a", "bc") differ.
func HashParts(parts ...string) Hash {
	return NewHash([]byte(strings.Join(parts, "\x00")))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ETag renders the hash as a quoted HTTP entity tag.
func (h Hash) ETag() string {
	return `"` + string(h) + `"`
}
