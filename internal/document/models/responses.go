package models

// VerificationResult is the three-way outcome of verifying content against the
// registry. Verified and Modified must be read together: a byte-identical
// match against a known-altered original is not proof of authenticity, so the
// flagged case never collapses into the clean-match case.
type VerificationResult struct {
	Verified    bool            `json:"verified"`
	Hash        string          `json:"hash"`
	Message     string          `json:"message"`
	Document    *DocumentRecord `json:"document,omitempty"`
	ExplorerURL string          `json:"explorer_url,omitempty"`
}

// SearchResult is a page of document records plus the filtered total.
type SearchResult struct {
	Documents []*DocumentRecord `json:"documents"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	HasMore   bool              `json:"has_more"`
}

// FlagResult references the ledger write that recorded a modification flag.
type FlagResult struct {
	TxRef       string `json:"transaction"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// RegisterResult references the ledger write that created a document record.
type RegisterResult struct {
	Record      *DocumentRecord `json:"document"`
	TxRef       string          `json:"transaction"`
	ExplorerURL string          `json:"explorer_url,omitempty"`
}
