// Package ledger models the shared ledger as an opaque key-addressed store
// with atomic single-writer updates per address. The registry core depends on
// the conditional-write primitives here instead of implementing its own
// locking: write-if-absent carries first-write-wins for registration, and the
// versioned Write carries read-modify-write for flagging.
package ledger

import (
	"context"
	"time"
)

// Record is a single addressed entry. The payload is opaque to the ledger;
// the document domain owns its encoding.
type Record struct {
	Address   Address
	Namespace string
	Payload   []byte
	// Version increments on every write to the address. Conditional writes
	// compare against it to reject lost updates under concurrent writers.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Receipt references a completed write for audit purposes. Timestamp is the
// ledger-assigned write time, monotonic non-decreasing per writer.
type Receipt struct {
	TxRef     string
	Timestamp time.Time
}

// Store is the contract every ledger backend satisfies. Implementations must
// serialize conflicting writes to the same address.
//
// Error conventions (pkg/platform/sentinel):
//   - Read returns ErrNotFound when the address is vacant.
//   - WriteIfAbsent returns ErrConflict when the address is occupied.
//   - Write returns ErrConflict when expectedVersion no longer matches, and
//     ErrNotFound when the address is vacant.
//   - Any transport or backend failure surfaces as ErrUnavailable (wrapped),
//     never as an empty result.
type Store interface {
	Read(ctx context.Context, addr Address) (*Record, error)
	WriteIfAbsent(ctx context.Context, rec *Record) (*Receipt, error)
	Write(ctx context.Context, rec *Record, expectedVersion int64) (*Receipt, error)
	// List returns every record in a namespace in deterministic order:
	// creation time ascending, ties broken by address ascending. Reads observe
	// a point-in-time snapshot relative to concurrent writers.
	List(ctx context.Context, namespace string) ([]*Record, error)
}
