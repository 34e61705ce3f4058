package models

// RegisterRequest is the payload for document registration. Hash is the
// hex-encoded content digest; the registrar identity comes from the
// authenticated caller, not the body.
type RegisterRequest struct {
	Hash         string `json:"hash"`
	DocumentType string `json:"document_type"`
	CATSNumber   string `json:"cats_number,omitempty"`
	StorageRef   string `json:"storage_ref"`
	PageNumber   uint32 `json:"page_number"`
	Title        string `json:"title"`
}

// FlagRequest reports a stealth redaction: a later release of the same nominal
// document whose bytes hash differently.
type FlagRequest struct {
	OriginalHash string `json:"original_hash"`
	NewHash      string `json:"new_hash"`
	Evidence     string `json:"evidence_description"`
}

// SearchQuery filters and paginates the document set.
type SearchQuery struct {
	Page         int
	Limit        int
	DocumentType string
	FreeText     string
}
