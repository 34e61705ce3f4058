package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	dErrors "truthchain/pkg/domain-errors"
)

// Namespaces partition the ledger's address space. The registry singleton
// lives at the address derived from an empty discriminator; each document
// lives at the address derived from its content hash.
const (
	NamespaceRegistry = "registry"
	NamespaceDocument = "document"
)

// AddressSize is the address length in bytes.
const AddressSize = sha256.Size

// Address is a 32-byte storage location computed deterministically from a
// namespace tag and a discriminator. Any party can derive a document's address
// from its hash alone; no lookup table is involved.
type Address [AddressSize]byte

// Derive computes the address for (namespace, discriminator). The separator
// byte keeps ("documentab", "c") and ("document", "abc") from colliding.
func Derive(namespace string, discriminator []byte) Address {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0x00})
	h.Write(discriminator)
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// String returns the lowercase hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressSize)
	copy(out, a[:])
	return out
}

// ParseAddress decodes a hex-encoded address.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != AddressSize {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 64 hex characters")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}
