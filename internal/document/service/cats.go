package service

import (
	"context"
	"strings"

	"truthchain/internal/document/models"
	dErrors "truthchain/pkg/domain-errors"
)

// propertyByPrefix maps CATS identifier prefixes to the properties they
// track. Identifiers outside the table resolve to the sentinel name, never to
// an empty value.
var propertyByPrefix = map[string]string{
	"CATS-ZR":  "Zorro Ranch",
	"CATS-LSJ": "Little St. James",
	"CATS-NYC": "New York",
}

// UnknownProperty is the sentinel name for unmapped CATS prefixes.
const UnknownProperty = "Unknown Property"

func resolveProperty(catsID string) string {
	for prefix, name := range propertyByPrefix {
		if strings.HasPrefix(catsID, prefix) {
			return name
		}
	}
	return UnknownProperty
}

// LookupCATS groups the documents sharing a CATS identifier. The hash list
// keeps the scan's first-seen order, which is deterministic.
func (s *Service) LookupCATS(ctx context.Context, catsID string) (*models.CATSRecord, error) {
	if catsID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cats_id is required")
	}
	docs, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var hashes []string
	for _, doc := range docs {
		if doc.CATSNumber == catsID {
			hashes = append(hashes, doc.Hash)
		}
	}
	if len(hashes) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "cats record not found")
	}

	return &models.CATSRecord{
		CATSID:         catsID,
		PropertyName:   resolveProperty(catsID),
		DocumentCount:  len(hashes),
		DocumentHashes: hashes,
	}, nil
}

// SearchCATS groups every document by CATS identifier, optionally filtered by
// property name (case-insensitive substring). Groups appear in the order the
// scan first sees each identifier.
func (s *Service) SearchCATS(ctx context.Context, propertyName string, limit int) ([]*models.CATSRecord, error) {
	if limit < MinSearchLimit || limit > MaxSearchLimit {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 100")
	}
	docs, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*models.CATSRecord)
	var order []string
	for _, doc := range docs {
		if doc.CATSNumber == "" {
			continue
		}
		rec, ok := grouped[doc.CATSNumber]
		if !ok {
			rec = &models.CATSRecord{
				CATSID:       doc.CATSNumber,
				PropertyName: resolveProperty(doc.CATSNumber),
			}
			grouped[doc.CATSNumber] = rec
			order = append(order, doc.CATSNumber)
		}
		rec.DocumentCount++
		rec.DocumentHashes = append(rec.DocumentHashes, doc.Hash)
	}

	needle := strings.ToLower(propertyName)
	out := make([]*models.CATSRecord, 0, len(order))
	for _, id := range order {
		rec := grouped[id]
		if needle != "" && !strings.Contains(strings.ToLower(rec.PropertyName), needle) {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
