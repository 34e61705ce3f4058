package audit

import "time"

// Action identifies what a registry event describes.
type Action string

const (
	ActionDocumentRegistered    Action = "document_registered"
	ActionModificationFlagged   Action = "modification_flagged"
	ActionVerificationPerformed Action = "verification_performed"
)

// Event is emitted from domain logic to capture key registry actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Hash      string    `json:"hash"`
	Address   string    `json:"address,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	TxRef     string    `json:"tx_ref,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
