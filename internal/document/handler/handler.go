// Package handler is the thin HTTP layer over the registry services. It
// parses and validates transport concerns, delegates to the services, and
// shapes JSON responses; registry semantics live below it.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"truthchain/internal/audit"
	"truthchain/internal/document/models"
	"truthchain/internal/hashid"
	"truthchain/internal/ingest"
	"truthchain/internal/platform/metrics"
	"truthchain/internal/platform/middleware"
	dErrors "truthchain/pkg/domain-errors"
	"truthchain/pkg/platform/httputil"
)

// maxUploadBytes bounds content uploads for hashing and verification.
const maxUploadBytes = 32 << 20

// Service defines the registry operations the handler needs.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest, registrar string) (*models.RegisterResult, error)
	Flag(ctx context.Context, originalHash, newHash, evidence, actor string) (*models.FlagResult, error)
	VerifyContent(ctx context.Context, content []byte) (*models.VerificationResult, error)
	GetByHash(ctx context.Context, hexHash string) (*models.DocumentRecord, error)
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
	LookupCATS(ctx context.Context, catsID string) (*models.CATSRecord, error)
	SearchCATS(ctx context.Context, propertyName string, limit int) ([]*models.CATSRecord, error)
	Stats(ctx context.Context) (*models.RegistryStats, error)
}

// Ingestor defines the ingestion pipeline the handler needs.
type Ingestor interface {
	Process(ctx context.Context, content []byte) (*ingest.Result, error)
}

// AuditReader exposes the per-document audit trail.
type AuditReader interface {
	List(ctx context.Context, hash string) ([]audit.Event, error)
}

// Handler handles all registry endpoints.
type Handler struct {
	logger    *slog.Logger
	documents Service
	ingestor  Ingestor
	trail     AuditReader
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// New creates the registry Handler.
func New(documents Service, ingestor Ingestor, trail AuditReader, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{
		logger:    logger,
		documents: documents,
		ingestor:  ingestor,
		trail:     trail,
		metrics:   m,
		validator: validator,
	}
}

// Register registers all routes with the chi router. Write endpoints sit
// behind registrar authentication; everything else is public.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.Latency(h.metrics))

	api.Post("/hash", h.handleHash)
	api.Post("/verify", h.handleVerify)
	api.Post("/process", h.handleProcess)
	api.Get("/documents", h.handleSearch)
	api.Get("/documents/{hash}", h.handleGetDocument)
	api.Get("/documents/{hash}/audit", h.handleDocumentAudit)
	api.Get("/cats", h.handleSearchCATS)
	api.Get("/cats/{cats_id}", h.handleGetCATS)
	api.Get("/stats", h.handleStats)

	api.Group(func(g chi.Router) {
		g.Use(middleware.RequireRegistrar(h.validator, h.logger))
		g.Post("/register", h.handleRegisterDocument)
		g.Post("/flag", h.handleFlag)
	})

	r.Mount("/api", api)
}

// readContent accepts either a multipart upload under the "file" field or a
// raw request body.
func readContent(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, header, ferr := r.FormFile("file")
		if ferr == nil {
			defer file.Close()
			content, rerr := io.ReadAll(file)
			if rerr != nil {
				return nil, "", dErrors.New(dErrors.CodeInvalidInput, "could not read uploaded file")
			}
			return content, header.Filename, nil
		}
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "multipart request is missing a file field")
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "could not read request body")
	}
	return content, "", nil
}

func (h *Handler) handleHash(w http.ResponseWriter, r *http.Request) {
	content, filename, err := readContent(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(content) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "content is empty"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"filename":    filename,
		"hash":        hashid.Sum(content).String(),
		"size_bytes":  len(content),
		"computed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	content, _, err := readContent(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(content) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "content is empty"))
		return
	}
	result, err := h.documents.VerifyContent(r.Context(), content)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "verification failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	content, _, err := readContent(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.ingestor.Process(r.Context(), content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := models.SearchQuery{
		Page:         intQuery(r, "page", 1),
		Limit:        intQuery(r, "limit", 20),
		DocumentType: r.URL.Query().Get("document_type"),
		FreeText:     r.URL.Query().Get("search"),
	}
	result, err := h.documents.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetByHash(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDocumentAudit(w http.ResponseWriter, r *http.Request) {
	hexHash := chi.URLParam(r, "hash")
	if _, err := hashid.Parse(hexHash); err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.trail.List(r.Context(), hexHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"hash":   hexHash,
		"events": events,
		"total":  len(events),
	})
}

func (h *Handler) handleGetCATS(w http.ResponseWriter, r *http.Request) {
	record, err := h.documents.LookupCATS(r.Context(), chi.URLParam(r, "cats_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleSearchCATS(w http.ResponseWriter, r *http.Request) {
	records, err := h.documents.SearchCATS(r.Context(),
		r.URL.Query().Get("property_name"), intQuery(r, "limit", 20))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.documents.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRegisterDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrar := middleware.GetRegistrar(ctx)
	if registrar == "" {
		// Should never happen behind RequireRegistrar.
		h.logger.ErrorContext(ctx, "registrar missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	result, err := h.documents.Register(ctx, req, registrar)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeInvalidInput) && !dErrors.Is(err, dErrors.CodeDuplicate) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "document registered",
		"document":     result.Record,
		"transaction":  result.TxRef,
		"explorer_url": result.ExplorerURL,
	})
}

func (h *Handler) handleFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrar := middleware.GetRegistrar(ctx)

	var req models.FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	result, err := h.documents.Flag(ctx, req.OriginalHash, req.NewHash, req.Evidence, registrar)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "modification flagged",
		"transaction":  result.TxRef,
		"explorer_url": result.ExplorerURL,
	})
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
