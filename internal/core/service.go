package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/utils"
)

// TriageService is the core orchestration: classify, persist, list, export.
type TriageService struct {
	llm           LLMClient
	store         HistoryRepository
	exporter      Exporter
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	modelTimeout  time.Duration
	historyLimit  int
	snippetLength int
}

// NewTriageService creates a new triage service
func NewTriageService(
	llm LLMClient,
	store HistoryRepository,
	exporter Exporter,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	modelTimeout time.Duration,
	historyLimit int,
	snippetLength int,
) *TriageService {
	return &TriageService{
		llm:           llm,
		store:         store,
		exporter:      exporter,
		logger:        logger,
		textProcessor: textProcessor,
		modelTimeout:  modelTimeout,
		historyLimit:  historyLimit,
		snippetLength: snippetLength,
	}
}

// ClassifyAndStore classifies one document and persists the result under the
// given session. Storage is strict on the write path: a failed insert fails
// the call even though the model already answered.
func (s *TriageService) ClassifyAndStore(ctx context.Context, userID string, doc EmailDocument) (*ClassificationResult, error) {
	callCtx := ctx
	if s.modelTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
	}

	result, err := s.llm.ClassifyEmail(callCtx, doc.Text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: model call exceeded %s", ErrModelUnavailable, s.modelTimeout)
		}
		return nil, err
	}

	rec := &ClassificationRecord{
		UserID:            userID,
		Classification:    result.Classification,
		ConfidenceScore:   result.ConfidenceScore,
		KeyTopic:          result.KeyTopic,
		Sentiment:         result.Sentiment,
		SuggestedResponse: result.SuggestedResponse,
		EmailContent:      doc.Text,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		s.logger.Error("Failed to persist classification",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.logger.Info("Email classified",
		zap.String("user_id", userID),
		zap.String("source", doc.Name),
		zap.String("classification", result.Classification),
		zap.Float64("confidence", result.ConfidenceScore))

	return result, nil
}

// ClassifyBatch classifies each document independently. A document's failure
// yields an error entry in its position without aborting the others.
func (s *TriageService) ClassifyBatch(ctx context.Context, userID string, docs []EmailDocument) []BatchItem {
	items := make([]BatchItem, 0, len(docs))
	for _, doc := range docs {
		result, err := s.ClassifyAndStore(ctx, userID, doc)
		if err != nil {
			s.logger.Warn("Document classification failed",
				zap.String("source", doc.Name),
				zap.Error(err))
			items = append(items, BatchItem{Source: doc.Name, Err: err})
			continue
		}
		items = append(items, BatchItem{Source: doc.Name, Result: result})
	}
	return items
}

// History returns the most recent classifications for the session, newest
// first. The read path degrades to an empty listing on storage failure.
func (s *TriageService) History(ctx context.Context, userID string) []HistoryEntry {
	records, err := s.store.ListRecent(ctx, userID, s.historyLimit)
	if err != nil {
		s.logger.Error("Failed to load history, serving empty listing",
			zap.String("user_id", userID),
			zap.Error(err))
		return []HistoryEntry{}
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			Classification:    rec.Classification,
			CreatedAt:         rec.CreatedAt.Format(time.RFC3339),
			EmailSnippet:      s.textProcessor.Snippet(rec.EmailContent, s.snippetLength),
			EmailContent:      rec.EmailContent,
			SuggestedResponse: rec.SuggestedResponse,
			KeyTopic:          rec.KeyTopic,
			Sentiment:         rec.Sentiment,
		})
	}
	return entries
}

// Export writes the session's full history to w in the exporter's format.
func (s *TriageService) Export(ctx context.Context, userID string, w io.Writer) error {
	records, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.exporter.Encode(w, records)
}

// Exporter exposes the configured exporter for transport-level headers.
func (s *TriageService) Exporter() Exporter {
	return s.exporter
}
