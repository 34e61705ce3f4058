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

// Register creates a document record at its derived address. Registration is
// first-write-wins: the registry records only the first content ever seen at
// a given hash, so an occupied address is a meaningful Duplicate error, never
// retried. The registrar is the authenticated authority performing the write.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest, registrar string) (*models.RegisterResult, error) {
	start := time.Now()
	defer s.metrics.ObserveRegister(start)

	digest, err := hashid.Parse(req.Hash)
	if err != nil {
		return nil, err
	}
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	addr := ledger.Derive(ledger.NamespaceDocument, digest.Bytes())
	doc := models.DocumentRecord{
		Hash:         digest.String(),
		DocumentType: req.DocumentType,
		CATSNumber:   req.CATSNumber,
		StorageRef:   req.StorageRef,
		Title:        req.Title,
		PageNumber:   req.PageNumber,
		Registrar:    registrar,
		Address:      addr.String(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "encode document record", err)
	}

	receipt, err := s.ledger.WriteIfAbsent(ctx, &ledger.Record{
		Address:   addr,
		Namespace: ledger.NamespaceDocument,
		Payload:   payload,
	})
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.DuplicateAttempts.Inc()
		return nil, dErrors.New(dErrors.CodeDuplicate, "document already registered at this hash")
	case errors.Is(err, sentinel.ErrUnavailable):
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger write failed", err)
	case err != nil:
		return nil, dErrors.Wrap(dErrors.CodeInternal, "ledger write failed", err)
	}

	doc.RegisteredAt = receipt.Timestamp
	s.metrics.DocumentsRegistered.Inc()
	s.cache.Invalidate(ctx)

	if err := s.incrementDocumentCount(ctx); err != nil {
		// The document write itself committed; the caller must re-check ledger
		// state before retrying to avoid double-counting.
		s.logger.ErrorContext(ctx, "registry counter update failed after document write",
			"hash", doc.Hash,
			"address", doc.Address,
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "document registered but registry counter update failed", err)
	}

	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionDocumentRegistered,
		Hash:      doc.Hash,
		Address:   doc.Address,
		Actor:     registrar,
		TxRef:     receipt.TxRef,
		Timestamp: receipt.Timestamp,
	})
	s.logger.InfoContext(ctx, "document registered",
		"hash", doc.Hash,
		"address", doc.Address,
		"type", doc.DocumentType,
		"registrar", registrar,
	)

	return &models.RegisterResult{
		Record:      &doc,
		TxRef:       receipt.TxRef,
		ExplorerURL: s.accountExplorerURL(doc.Address),
	}, nil
}

func validateRegistration(req models.RegisterRequest) error {
	switch {
	case req.DocumentType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "document_type is required")
	case len(req.DocumentType) > models.MaxDocumentTypeLen:
		return dErrors.New(dErrors.CodeInvalidInput, "document_type exceeds maximum length")
	case len(req.CATSNumber) > models.MaxCATSNumberLen:
		return dErrors.New(dErrors.CodeInvalidInput, "cats_number exceeds maximum length")
	case req.StorageRef == "":
		return dErrors.New(dErrors.CodeInvalidInput, "storage_ref is required")
	case len(req.StorageRef) > models.MaxStorageRefLen:
		return dErrors.New(dErrors.CodeInvalidInput, "storage_ref exceeds maximum length")
	case len(req.Title) > models.MaxTitleLen:
		return dErrors.New(dErrors.CodeInvalidInput, "title exceeds maximum length")
	}
	return nil
}

// incrementDocumentCount bumps the singleton registry counter with a bounded
// compare-and-swap loop. The registry record goes through the same ledger
// contract as every other entity so all mutation stays auditable.
func (s *Service) incrementDocumentCount(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < counterRetries; attempt++ {
		rec, err := s.ledger.Read(ctx, s.registryAddr)
		if err != nil {
			return err
		}
		reg, err := decodeRegistry(rec)
		if err != nil {
			return err
		}
		reg.DocumentCount++
		payload, err := json.Marshal(reg)
		if err != nil {
			return err
		}
		rec.Payload = payload
		_, err = s.ledger.Write(ctx, rec, rec.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
