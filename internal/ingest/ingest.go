// Package ingest prepares raw document bytes for registration: hashing,
// archival to the content store, text extraction, and classification. The
// extractor and classifier are untrusted hint providers consumed only here;
// their output never overrides an already-registered record.
package ingest

import (
	"context"
	"log/slog"

	"truthchain/internal/hashid"
	dErrors "truthchain/pkg/domain-errors"
)

// TextExtractor pulls text out of scanned document bytes (OCR).
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// Classifier derives registration hints from extracted text.
type Classifier interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// Analysis is the classifier's untrusted hint set.
type Analysis struct {
	DocumentType   string   `json:"document_type"`
	CATSNumbers    []string `json:"cats_numbers"`
	Entities       []string `json:"entities"`
	SuggestedTitle string   `json:"suggested_title"`
}

// ContentStore archives document bytes and resolves storage refs back to
// bytes. The registry core never dereferences refs; only ingestion does.
type ContentStore interface {
	Put(ctx context.Context, key string, content []byte) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Result is what a processed upload yields: the content identity plus hints
// for the eventual registration call.
type Result struct {
	Hash        string    `json:"hash"`
	SizeBytes   int       `json:"size_bytes"`
	StorageRef  string    `json:"storage_ref,omitempty"`
	TextPreview string    `json:"extracted_text_preview,omitempty"`
	Analysis    *Analysis `json:"analysis,omitempty"`
}

const previewLen = 500

// Service runs the ingestion pipeline. All collaborators are injected
// capabilities; absent ones are no-ops selected at construction, so call
// sites never check for nil.
type Service struct {
	extractor  TextExtractor
	classifier Classifier
	content    ContentStore
	logger     *slog.Logger
}

func New(extractor TextExtractor, classifier Classifier, content ContentStore, logger *slog.Logger) *Service {
	if extractor == nil {
		extractor = NoopExtractor{}
	}
	if classifier == nil {
		classifier = NoopClassifier{}
	}
	if content == nil {
		content = NoopContentStore{}
	}
	return &Service{extractor: extractor, classifier: classifier, content: content, logger: logger}
}

// Process hashes content, archives it under its hash, and gathers
// classification hints. Extraction and classification failures degrade to
// empty hints with a warning; the hash and archival outcome are what matter.
func (s *Service) Process(ctx context.Context, content []byte) (*Result, error) {
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content is empty")
	}

	digest := hashid.Sum(content)
	result := &Result{
		Hash:      digest.String(),
		SizeBytes: len(content),
	}

	ref, err := s.content.Put(ctx, digest.String(), content)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "content store write failed", err)
	}
	result.StorageRef = ref

	text, err := s.extractor.ExtractText(ctx, content)
	if err != nil {
		s.logger.WarnContext(ctx, "text extraction failed", "hash", result.Hash, "error", err.Error())
		return result, nil
	}
	if len(text) > previewLen {
		result.TextPreview = text[:previewLen] + "..."
	} else {
		result.TextPreview = text
	}

	analysis, err := s.classifier.Analyze(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "classification failed", "hash", result.Hash, "error", err.Error())
		return result, nil
	}
	result.Analysis = analysis
	return result, nil
}
