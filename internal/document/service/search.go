package service

import (
	"context"
	"strings"
	"time"

	"truthchain/internal/document/models"
	dErrors "truthchain/pkg/domain-errors"
)

// Search limits. Pages are 1-based; limit is clamped by validation, not
// silently.
const (
	MinSearchLimit = 1
	MaxSearchLimit = 100
)

// Search filters the full record set by document type (case-insensitive exact
// match) and free text (case-insensitive substring over title and CATS
// number), then paginates. Repeated identical queries over an unchanged
// record set return identical pages: the underlying scan order is
// deterministic.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	if q.Page < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "page must be >= 1")
	}
	if q.Limit < MinSearchLimit || q.Limit > MaxSearchLimit {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 100")
	}

	start := time.Now()
	defer s.metrics.ObserveSearch(start)

	docs, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}

	filtered := docs
	if q.DocumentType != "" || q.FreeText != "" {
		wantType := strings.ToLower(q.DocumentType)
		needle := strings.ToLower(q.FreeText)
		filtered = make([]*models.DocumentRecord, 0, len(docs))
		for _, doc := range docs {
			if wantType != "" && strings.ToLower(doc.DocumentType) != wantType {
				continue
			}
			if needle != "" && !matchesFreeText(doc, needle) {
				continue
			}
			filtered = append(filtered, doc)
		}
	}

	total := len(filtered)
	lo := (q.Page - 1) * q.Limit
	hi := lo + q.Limit
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}

	return &models.SearchResult{
		Documents: filtered[lo:hi],
		Total:     total,
		Page:      q.Page,
		Limit:     q.Limit,
		HasMore:   total > q.Page*q.Limit,
	}, nil
}

func matchesFreeText(doc *models.DocumentRecord, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Title), needle) {
		return true
	}
	return doc.CATSNumber != "" && strings.Contains(strings.ToLower(doc.CATSNumber), needle)
}
