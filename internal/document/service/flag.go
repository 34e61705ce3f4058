package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"truthchain/internal/audit"
	"truthchain/internal/document/models"
	"truthchain/internal/hashid"
	"truthchain/internal/ledger"
	dErrors "truthchain/pkg/domain-errors"
	"truthchain/pkg/platform/sentinel"
)

// Flag marks the document registered under originalHash as modified, with
// newHash and the evidence text retained as justification. The record's hash
// and address never change; a stealth redaction is recorded against the
// original identity, not as a replacement of it.
func (s *Service) Flag(ctx context.Context, originalHash, newHash, evidence string, actor string) (*models.FlagResult, error) {
	original, err := hashid.Parse(originalHash)
	if err != nil {
		return nil, err
	}
	replacement, err := hashid.Parse(newHash)
	if err != nil {
		return nil, err
	}
	if original == replacement {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "new hash must differ from the original")
	}

	addr := ledger.Derive(ledger.NamespaceDocument, original.Bytes())

	// Read-modify-write with bounded retry: the ledger's versioned write
	// rejects lost updates when flaggers race on the same record.
	var lastErr error
	for attempt := 0; attempt < counterRetries; attempt++ {
		rec, err := s.ledger.Read(ctx, addr)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "no document registered at the original hash")
		case errors.Is(err, sentinel.ErrUnavailable):
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger read failed", err)
		case err != nil:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "ledger read failed", err)
		}

		doc, err := decodeDocument(rec)
		if err != nil {
			return nil, err
		}
		doc.Modified = true
		doc.ModificationCount++
		doc.Modifications = append(doc.Modifications, models.ModificationNote{
			NewHash:   replacement.String(),
			Evidence:  evidence,
			FlaggedAt: time.Now().UTC(),
		})

		payload, err := json.Marshal(doc)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "encode document record", err)
		}
		rec.Payload = payload

		receipt, err := s.ledger.Write(ctx, rec, rec.Version)
		if err == nil {
			s.metrics.ModificationsFlagged.Inc()
			s.cache.Invalidate(ctx)
			s.emitAudit(ctx, audit.Event{
				Action:    audit.ActionModificationFlagged,
				Hash:      doc.Hash,
				Address:   doc.Address,
				Actor:     actor,
				TxRef:     receipt.TxRef,
				Timestamp: receipt.Timestamp,
				Detail:    "new hash " + replacement.String(),
			})
			s.logger.InfoContext(ctx, "modification flagged",
				"hash", doc.Hash,
				"new_hash", replacement.String(),
				"count", doc.ModificationCount,
				"actor", actor,
			)
			return &models.FlagResult{
				TxRef:       receipt.TxRef,
				ExplorerURL: s.txExplorerURL(receipt.TxRef),
			}, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			if errors.Is(err, sentinel.ErrUnavailable) {
				return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger write failed", err)
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "ledger write failed", err)
		}
		lastErr = err
	}
	return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger contention while flagging; retry", lastErr)
}
