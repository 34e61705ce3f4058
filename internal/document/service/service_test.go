package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"truthchain/internal/audit"
	"truthchain/internal/document/metrics"
	"truthchain/internal/document/models"
	"truthchain/internal/document/service"
	"truthchain/internal/hashid"
	"truthchain/internal/ledger"
	dErrors "truthchain/pkg/domain-errors"
)

// Prometheus collectors register globally, so the package shares one instance.
var testMetrics = metrics.New()

const testAuthority = "test-authority"

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *ledger.InMemory
	auditStore *audit.InMemoryStore
	svc        *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(s.ctx, s.store, audit.NewPublisher(s.auditStore), testMetrics, logger, testAuthority)
	s.Require().NoError(err)
	s.svc = svc
}

// register stores content and returns its digest and the result.
func (s *ServiceSuite) register(content, docType, cats string) (hashid.Digest, *models.RegisterResult) {
	s.T().Helper()
	digest := hashid.Sum([]byte(content))
	result, err := s.svc.Register(s.ctx, models.RegisterRequest{
		Hash:         digest.String(),
		DocumentType: docType,
		CATSNumber:   cats,
		StorageRef:   "s3://evidence/" + digest.String()[:8],
		Title:        "Document " + content,
	}, "registrar-1")
	s.Require().NoError(err)
	return digest, result
}

func (s *ServiceSuite) TestBootstrapIsIdempotent() {
	// A second service over the same store must not fail on the existing
	// registry record.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := service.New(s.ctx, s.store, audit.NewPublisher(s.auditStore), testMetrics, logger, testAuthority)
	s.Require().NoError(err)

	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), stats.DocumentCount)
}

func (s *ServiceSuite) TestRegister() {
	s.Run("success", func() {
		digest, result := s.register("deposition page 1", "deposition", "CATS-ZR-0001")

		s.Equal(digest.String(), result.Record.Hash)
		s.Equal("registrar-1", result.Record.Registrar)
		s.False(result.Record.RegisteredAt.IsZero())
		s.False(result.Record.Modified)
		s.NotEmpty(result.TxRef)

		addr := ledger.Derive(ledger.NamespaceDocument, digest.Bytes())
		s.Equal(addr.String(), result.Record.Address)
	})

	s.Run("increments the registry counter", func() {
		s.register("counter check", "memo", "")

		stats, err := s.svc.Stats(s.ctx)
		s.Require().NoError(err)
		s.GreaterOrEqual(stats.DocumentCount, uint64(1))
	})

	s.Run("duplicate hash is rejected and not retried", func() {
		digest, _ := s.register("registered once", "deposition", "")

		_, err := s.svc.Register(s.ctx, models.RegisterRequest{
			Hash:         digest.String(),
			DocumentType: "memo",
			StorageRef:   "s3://elsewhere",
		}, "registrar-2")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeDuplicate))

		// The original record survives untouched.
		doc, err := s.svc.GetByHash(s.ctx, digest.String())
		s.Require().NoError(err)
		s.Equal("deposition", doc.DocumentType)
		s.Equal("registrar-1", doc.Registrar)
	})

	s.Run("validation", func() {
		valid := func() models.RegisterRequest {
			return models.RegisterRequest{
				Hash:         hashid.Sum([]byte("validation subject")).String(),
				DocumentType: "deposition",
				StorageRef:   "s3://evidence/x",
			}
		}

		cases := []struct {
			name   string
			mutate func(*models.RegisterRequest)
		}{
			{"bad hash", func(r *models.RegisterRequest) { r.Hash = "not-a-hash" }},
			{"missing document type", func(r *models.RegisterRequest) { r.DocumentType = "" }},
			{"oversized document type", func(r *models.RegisterRequest) { r.DocumentType = longString(models.MaxDocumentTypeLen + 1) }},
			{"oversized cats number", func(r *models.RegisterRequest) { r.CATSNumber = longString(models.MaxCATSNumberLen + 1) }},
			{"missing storage ref", func(r *models.RegisterRequest) { r.StorageRef = "" }},
			{"oversized storage ref", func(r *models.RegisterRequest) { r.StorageRef = longString(models.MaxStorageRefLen + 1) }},
			{"oversized title", func(r *models.RegisterRequest) { r.Title = longString(models.MaxTitleLen + 1) }},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				req := valid()
				tc.mutate(&req)
				_, err := s.svc.Register(s.ctx, req, "registrar-1")
				s.Require().Error(err)
				s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
			})
		}
	})
}

func (s *ServiceSuite) TestFlag() {
	s.Run("marks the record and appends evidence", func() {
		digest, _ := s.register("original release", "deposition", "CATS-NYC-0042")
		newHash := hashid.Sum([]byte("redacted release"))

		result, err := s.svc.Flag(s.ctx, digest.String(), newHash.String(), "page 4 names removed", "registrar-1")
		s.Require().NoError(err)
		s.NotEmpty(result.TxRef)

		doc, err := s.svc.GetByHash(s.ctx, digest.String())
		s.Require().NoError(err)
		s.True(doc.Modified)
		s.Equal(1, doc.ModificationCount)
		s.Require().Len(doc.Modifications, 1)
		s.Equal(newHash.String(), doc.Modifications[0].NewHash)
		s.Equal("page 4 names removed", doc.Modifications[0].Evidence)
		// Identity never changes.
		s.Equal(digest.String(), doc.Hash)
	})

	s.Run("repeated flags accumulate", func() {
		digest, _ := s.register("flag target", "deposition", "")

		for i := 0; i < 3; i++ {
			newHash := hashid.Sum([]byte(fmt.Sprintf("altered copy %d", i)))
			_, err := s.svc.Flag(s.ctx, digest.String(), newHash.String(), "evidence", "registrar-1")
			s.Require().NoError(err)
		}

		doc, err := s.svc.GetByHash(s.ctx, digest.String())
		s.Require().NoError(err)
		s.Equal(3, doc.ModificationCount)
		s.Len(doc.Modifications, 3)
	})

	s.Run("unknown original hash", func() {
		unknown := hashid.Sum([]byte("never registered"))
		other := hashid.Sum([]byte("other"))
		_, err := s.svc.Flag(s.ctx, unknown.String(), other.String(), "evidence", "registrar-1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("identical hashes rejected", func() {
		digest, _ := s.register("identical flag subject", "memo", "")
		_, err := s.svc.Flag(s.ctx, digest.String(), digest.String(), "evidence", "registrar-1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestVerify() {
	s.Run("absent content is a negative result, not an error", func() {
		result, err := s.svc.VerifyContent(s.ctx, []byte("never seen"))
		s.Require().NoError(err)
		s.False(result.Verified)
		s.Nil(result.Document)
		s.Equal("document not found in registry", result.Message)
	})

	s.Run("registered content matches", func() {
		content := "pristine filing"
		digest, _ := s.register(content, "court-filing", "")

		result, err := s.svc.VerifyContent(s.ctx, []byte(content))
		s.Require().NoError(err)
		s.True(result.Verified)
		s.Equal(digest.String(), result.Hash)
		s.Equal("matches original", result.Message)
		s.Require().NotNil(result.Document)
		s.False(result.Document.Modified)
	})

	s.Run("flagged content verifies with a distinct message", func() {
		content := "filing later redacted"
		digest, _ := s.register(content, "court-filing", "")
		newHash := hashid.Sum([]byte("the redacted bytes"))
		_, err := s.svc.Flag(s.ctx, digest.String(), newHash.String(), "redaction", "registrar-1")
		s.Require().NoError(err)

		result, err := s.svc.VerifyContent(s.ctx, []byte(content))
		s.Require().NoError(err)
		s.True(result.Verified)
		s.NotEqual("matches original", result.Message)
		s.Contains(result.Message, "flagged as modified")
		s.Require().NotNil(result.Document)
		s.True(result.Document.Modified)
	})
}

func (s *ServiceSuite) TestGetByHash() {
	s.Run("found", func() {
		digest, _ := s.register("lookup subject", "memo", "")
		doc, err := s.svc.GetByHash(s.ctx, digest.String())
		s.Require().NoError(err)
		s.Equal(digest.String(), doc.Hash)
	})

	s.Run("missing", func() {
		_, err := s.svc.GetByHash(s.ctx, hashid.Sum([]byte("nope")).String())
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("malformed hash", func() {
		_, err := s.svc.GetByHash(s.ctx, "xyz")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestAuditTrail() {
	digest, _ := s.register("audited document", "deposition", "")
	newHash := hashid.Sum([]byte("altered"))
	_, err := s.svc.Flag(s.ctx, digest.String(), newHash.String(), "evidence", "registrar-1")
	s.Require().NoError(err)

	events, err := s.auditStore.ListByHash(s.ctx, digest.String())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionDocumentRegistered, events[0].Action)
	s.Equal(audit.ActionModificationFlagged, events[1].Action)
	s.Equal("registrar-1", events[0].Actor)
}

func longString(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}
