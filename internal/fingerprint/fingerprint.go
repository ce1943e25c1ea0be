// Package fingerprint computes fixed-size content digests used to compare
// pad snapshots without comparing their full text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a Digest in bytes.
const Size = sha256.Size

// Digest is the SHA-256 digest of a pad's content.
// Digests are arrays, so they compare with == and can be used as map keys.
type Digest [Size]byte

// Of returns the digest of content.
func Of(content string) Digest {
	return sha256.Sum256([]byte(content))
}

// String returns the lower-case hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero value, i.e. not computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Parse decodes a hex digest produced by Digest.String.
// The second return value is false when s is not a valid digest.
func Parse(s string) (Digest, bool) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != Size {
		return d, false
	}
	copy(d[:], b)
	return d, true
}
