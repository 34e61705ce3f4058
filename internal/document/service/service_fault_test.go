package service_test

import (
	"context"
	"io"
	"log/slog"

	"truthchain/internal/audit"
	"truthchain/internal/document/models"
	"truthchain/internal/document/service"
	"truthchain/internal/hashid"
	"truthchain/internal/ledger"
	dErrors "truthchain/pkg/domain-errors"
	"truthchain/pkg/platform/sentinel"
)

// faultyStore wraps the in-memory ledger and fails on demand, for verifying
// that outages propagate instead of reading as empty results.
type faultyStore struct {
	*ledger.InMemory
	down bool
}

func (f *faultyStore) Read(ctx context.Context, addr ledger.Address) (*ledger.Record, error) {
	if f.down {
		return nil, sentinel.ErrUnavailable
	}
	return f.InMemory.Read(ctx, addr)
}

func (f *faultyStore) WriteIfAbsent(ctx context.Context, rec *ledger.Record) (*ledger.Receipt, error) {
	if f.down {
		return nil, sentinel.ErrUnavailable
	}
	return f.InMemory.WriteIfAbsent(ctx, rec)
}

func (f *faultyStore) Write(ctx context.Context, rec *ledger.Record, expectedVersion int64) (*ledger.Receipt, error) {
	if f.down {
		return nil, sentinel.ErrUnavailable
	}
	return f.InMemory.Write(ctx, rec, expectedVersion)
}

func (f *faultyStore) List(ctx context.Context, namespace string) ([]*ledger.Record, error) {
	if f.down {
		return nil, sentinel.ErrUnavailable
	}
	return f.InMemory.List(ctx, namespace)
}

// An unreachable ledger must never be reported as an empty registry or an
// unverified document; every operation surfaces the outage.
func (s *ServiceSuite) TestLedgerOutagePropagates() {
	store := &faultyStore{InMemory: ledger.NewInMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(s.ctx, store, audit.NewPublisher(audit.NewInMemoryStore()), testMetrics, logger, testAuthority)
	s.Require().NoError(err)

	digest := hashid.Sum([]byte("registered before the outage"))
	_, err = svc.Register(s.ctx, models.RegisterRequest{
		Hash:         digest.String(),
		DocumentType: "deposition",
		StorageRef:   "s3://evidence/x",
	}, "registrar-1")
	s.Require().NoError(err)

	store.down = true

	s.Run("verify", func() {
		_, err := svc.VerifyContent(s.ctx, []byte("registered before the outage"))
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("search", func() {
		_, err := svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("cats lookup", func() {
		_, err := svc.LookupCATS(s.ctx, "CATS-ZR-0001")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("stats", func() {
		_, err := svc.Stats(s.ctx)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("register", func() {
		other := hashid.Sum([]byte("registered during the outage"))
		_, err := svc.Register(s.ctx, models.RegisterRequest{
			Hash:         other.String(),
			DocumentType: "memo",
			StorageRef:   "s3://evidence/y",
		}, "registrar-1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})

	s.Run("flag", func() {
		other := hashid.Sum([]byte("altered"))
		_, err := svc.Flag(s.ctx, digest.String(), other.String(), "evidence", "registrar-1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnavailable))
	})
}
