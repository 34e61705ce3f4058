package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Ledger store implementations return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no record at the requested address
// - ErrConflict: conditional write lost (address occupied, or version mismatch)
// - ErrUnavailable: the ledger could not be reached or failed internally
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
