// Package sha256 derives content-addressed keys for archived SERP pages.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

var _ rank.Hasher = (*Hasher)(nil)

// Hasher implements rank.Hasher using SHA-256.
type Hasher struct {
	size int
}

// New returns a hasher producing the full 64-character hex digest.
func New() *Hasher {
	return &Hasher{size: sha256.Size * 2}
}

// NewTruncated returns a hasher that keeps only the first n hex characters,
// for shorter object names.
func NewTruncated(n int) (*Hasher, error) {
	if n < 8 || n > sha256.Size*2 {
		return nil, fmt.Errorf("digest length %d out of range [8,%d]", n, sha256.Size*2)
	}
	return &Hasher{size: n}, nil
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:h.size], nil
}
