// Package service implements the registry's core semantics: content-addressed
// registration with first-write-wins, modification flagging, search,
// verification, and the CATS grouping. All persistence goes through the
// ledger's conditional-write contract; the service holds no long-lived state
// beyond a request's working set.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"truthchain/internal/audit"
	"truthchain/internal/document/cache"
	"truthchain/internal/document/metrics"
	"truthchain/internal/document/models"
	"truthchain/internal/hashid"
	"truthchain/internal/ledger"
	dErrors "truthchain/pkg/domain-errors"
	"truthchain/pkg/platform/sentinel"
)

// counterRetries bounds the compare-and-swap loop on the registry counter and
// on flag updates. Conflicts beyond this point indicate sustained contention
// and are surfaced to the caller rather than masked.
const counterRetries = 3

// Service orchestrates all registry operations over the ledger store.
type Service struct {
	ledger       ledger.Store
	audit        *audit.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	cache        cache.Snapshot
	registryAddr ledger.Address
	explorerBase string
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithSnapshotCache installs a cache for the full document scan used by
// search, CATS lookups, and stats.
func WithSnapshotCache(c cache.Snapshot) Option {
	return func(s *Service) { s.cache = c }
}

// WithExplorerBaseURL enables explorer links on responses (e.g. a ledger
// block explorer). Empty disables the links.
func WithExplorerBaseURL(base string) Option {
	return func(s *Service) { s.explorerBase = base }
}

// New constructs the service and bootstraps the registry singleton. The
// bootstrap is a write-if-absent: a concurrent or earlier bootstrap winning
// the race is not an error.
func New(ctx context.Context, store ledger.Store, publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, authority string, opts ...Option) (*Service, error) {
	s := &Service{
		ledger:       store,
		audit:        publisher,
		metrics:      m,
		logger:       logger,
		cache:        cache.NewNoop(),
		registryAddr: ledger.Derive(ledger.NamespaceRegistry, nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	payload, err := json.Marshal(models.Registry{Authority: authority})
	if err != nil {
		return nil, fmt.Errorf("marshal registry record: %w", err)
	}
	_, err = store.WriteIfAbsent(ctx, &ledger.Record{
		Address:   s.registryAddr,
		Namespace: ledger.NamespaceRegistry,
		Payload:   payload,
	})
	switch {
	case err == nil:
		logger.InfoContext(ctx, "registry initialized", "address", s.registryAddr.String(), "authority", authority)
	case errors.Is(err, sentinel.ErrConflict):
		// Already bootstrapped.
	default:
		return nil, fmt.Errorf("bootstrap registry: %w", err)
	}
	return s, nil
}

// decodeDocument rebuilds a DocumentRecord from its ledger record. The
// registered-at timestamp and version-derived fields come from the ledger, not
// the payload, so the ledger stays the single source of truth for write times.
// The derived-address invariant is checked on every decode: a record whose
// stored hash does not derive to its address is corrupt.
func decodeDocument(rec *ledger.Record) (*models.DocumentRecord, error) {
	var doc models.DocumentRecord
	if err := json.Unmarshal(rec.Payload, &doc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "corrupt document record", err)
	}
	digest, err := hashid.Parse(doc.Hash)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "corrupt document record", err)
	}
	if ledger.Derive(ledger.NamespaceDocument, digest.Bytes()) != rec.Address {
		return nil, dErrors.New(dErrors.CodeInternal, "document record does not match its address")
	}
	doc.Address = rec.Address.String()
	doc.RegisteredAt = rec.CreatedAt
	return &doc, nil
}

func decodeRegistry(rec *ledger.Record) (*models.Registry, error) {
	var reg models.Registry
	if err := json.Unmarshal(rec.Payload, &reg); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "corrupt registry record", err)
	}
	reg.CreatedAt = rec.CreatedAt
	return &reg, nil
}

// listDocuments returns the full document set in the ledger's deterministic
// scan order, going through the snapshot cache when one is installed. Ledger
// failures propagate as CodeUnavailable; they are never reported as an empty
// result.
func (s *Service) listDocuments(ctx context.Context) ([]*models.DocumentRecord, error) {
	if docs, ok := s.cache.Get(ctx); ok {
		return docs, nil
	}
	records, err := s.ledger.List(ctx, ledger.NamespaceDocument)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "ledger scan failed", err)
	}
	docs := make([]*models.DocumentRecord, 0, len(records))
	for _, rec := range records {
		doc, err := decodeDocument(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	s.cache.Set(ctx, docs)
	return docs, nil
}

// emitAudit records an audit event best-effort. Audit failures must not fail
// the operation they describe; they are logged instead.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"hash", event.Hash,
			"error", err.Error(),
		)
	}
}

func (s *Service) accountExplorerURL(address string) string {
	if s.explorerBase == "" {
		return ""
	}
	return s.explorerBase + "/account/" + address
}

func (s *Service) txExplorerURL(txRef string) string {
	if s.explorerBase == "" {
		return ""
	}
	return s.explorerBase + "/tx/" + txRef
}
