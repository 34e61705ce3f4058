// Package models holds the document registry's persistent and derived types.
package models

import (
	"time"
)

// Field limits enforced before any ledger write. They mirror the space the
// ledger allocates per record.
const (
	MaxDocumentTypeLen = 32
	MaxCATSNumberLen   = 64
	MaxStorageRefLen   = 64
	MaxTitleLen        = 128
)

// DocumentRecord is the registry's unit of truth. Its identity is the content
// hash; the stored address is always the value derived from that hash, so the
// record is self-verifying. Created once, mutated only by modification
// flagging, never deleted.
type DocumentRecord struct {
	Hash              string             `json:"hash"`
	DocumentType      string             `json:"document_type"`
	CATSNumber        string             `json:"cats_number,omitempty"`
	StorageRef        string             `json:"storage_ref"`
	Title             string             `json:"title"`
	PageNumber        uint32             `json:"page_number"`
	RegisteredAt      time.Time          `json:"registered_at"`
	Modified          bool               `json:"is_modified"`
	ModificationCount int                `json:"modification_count"`
	Modifications     []ModificationNote `json:"modifications,omitempty"`
	Registrar         string             `json:"registrar"`
	Address           string             `json:"address"`
}

// ModificationNote retains the evidence presented when a stealth redaction was
// flagged. The differing hash is justification only; it never replaces the
// record's identity.
type ModificationNote struct {
	NewHash   string    `json:"new_hash"`
	Evidence  string    `json:"evidence"`
	FlaggedAt time.Time `json:"flagged_at"`
}

// Registry is the singleton counter record at the well-known registry address.
type Registry struct {
	Authority     string    `json:"authority"`
	DocumentCount uint64    `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CATSRecord is a derived, read-only grouping of documents sharing an asset
// tracking identifier. Recomputed on each query; never persisted.
type CATSRecord struct {
	CATSID         string   `json:"cats_id"`
	PropertyName   string   `json:"property_name"`
	DocumentCount  int      `json:"document_count"`
	DocumentHashes []string `json:"document_hashes"`
}

// RegistryStats aggregates registry-wide counters for the stats endpoint.
type RegistryStats struct {
	DocumentCount uint64         `json:"total_documents"`
	ModifiedCount int            `json:"modified_count"`
	UniqueCATS    int            `json:"unique_cats_numbers"`
	DocumentTypes map[string]int `json:"document_types"`
}
