// Package checksum computes content digests for post sources and builds.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Combine folds several digests into one. The result does not depend on the
// order of sums.
func Combine(sums ...string) string {
	sorted := append([]string(nil), sums...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, s := range sorted {
		_, _ = io.WriteString(h, s)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
