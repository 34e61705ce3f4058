// Package hashid provides canonical content hashing for the registry. A
// document's identity is the SHA-256 digest of its bytes; every external
// representation of a digest is lowercase hex.
package hashid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "truthchain/pkg/domain-errors"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// Digest is a 32-byte content hash.
type Digest [Size]byte

// Sum computes the digest of content. Total over any byte sequence, including
// empty input.
func Sum(content []byte) Digest {
	return sha256.Sum256(content)
}

// String returns the canonical lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns the digest as a byte slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// IsZero reports whether the digest is the zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Parse decodes a hex-encoded digest. Uppercase input is accepted and folded
// to the canonical form; anything that is not exactly 64 hex characters is
// rejected as invalid input.
func Parse(s string) (Digest, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != Size*2 {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "hash must be 64 hex characters")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "hash is not valid hex")
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

// FromBytes converts a raw 32-byte slice into a Digest.
func FromBytes(raw []byte) (Digest, error) {
	if len(raw) != Size {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "hash must be exactly 32 bytes")
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

// Matches reports whether content hashes to expected.
func Matches(content []byte, expected Digest) bool {
	return Sum(content) == expected
}
