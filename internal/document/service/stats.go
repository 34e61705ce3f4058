package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"truthchain/internal/document/models"
	dErrors "truthchain/pkg/domain-errors"
	"truthchain/pkg/platform/sentinel"
)

// Stats returns registry-wide counters. The authoritative document count
// comes from the singleton registry record; the derived tallies (modified
// count, distinct CATS identifiers, per-type counts) come from the scan. The
// two reads run in parallel and observe a point-in-time snapshot each.
func (s *Service) Stats(ctx context.Context) (*models.RegistryStats, error) {
	g, ctx := errgroup.WithContext(ctx)

	var reg *models.Registry
	g.Go(func() error {
		rec, err := s.ledger.Read(ctx, s.registryAddr)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeInternal, "registry record missing")
		case errors.Is(err, sentinel.ErrUnavailable):
			return dErrors.Wrap(dErrors.CodeUnavailable, "ledger read failed", err)
		case err != nil:
			return dErrors.Wrap(dErrors.CodeInternal, "ledger read failed", err)
		}
		reg, err = decodeRegistry(rec)
		return err
	})

	var docs []*models.DocumentRecord
	g.Go(func() error {
		var err error
		docs, err = s.listDocuments(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.RegistryStats{
		DocumentCount: reg.DocumentCount,
		DocumentTypes: make(map[string]int),
	}
	catsSeen := make(map[string]struct{})
	for _, doc := range docs {
		if doc.Modified {
			stats.ModifiedCount++
		}
		if doc.CATSNumber != "" {
			catsSeen[doc.CATSNumber] = struct{}{}
		}
		stats.DocumentTypes[doc.DocumentType]++
	}
	stats.UniqueCATS = len(catsSeen)
	return stats, nil
}
