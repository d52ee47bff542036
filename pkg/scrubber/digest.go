package scrubber

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the BLAKE3-256 digest of data in "blake3:<hex>" form. It
// lets callers confirm an output differs from its input without keeping
// both buffers around.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}
