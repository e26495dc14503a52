// Package qa implements the retrieval-augmented question-answering pipeline:
// chunking on ingest, retrieval plus generation on query.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docqa/config"
	"docqa/model"
	"docqa/store"
	"docqa/types"
)

// Some providers reject requests when the project has no access to the
// configured model; the error text is the only signal they give. The marker
// maps that case to actionable guidance instead of the generic fallback.
const (
	accessNotEnabledMarker = "is not enabled"
	accessNotEnabledAnswer = "Error: API access to the configured model needs to be enabled for your project. Please enable it in your provider console."
	fallbackAnswer         = "I encountered an error while processing your question."
)

// Service drives the pipeline: Ingest runs chunk -> embed -> persist, Answer
// runs load -> search -> generate. It is stateless across requests; the chat
// history arrives with every call.
type Service struct {
	vectors      store.VectorStorer
	generator    model.Generator
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

func NewService(cfg config.Config, vectors store.VectorStorer, generator model.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		vectors:      vectors,
		generator:    generator,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		logger:       logger,
	}
}

// Ingest chunks the extracted text and builds the persisted vector index for
// docID, replacing any previous index under that identifier. It returns the
// locator of the persisted index.
func (s *Service) Ingest(ctx context.Context, docID, text string) (string, error) {
	chunks := SplitText(text, s.chunkSize, s.chunkOverlap)

	locator, err := s.vectors.Create(ctx, docID, chunks)
	if err != nil {
		return "", fmt.Errorf("create vector index: %w", err)
	}

	s.logger.Info("document indexed",
		"doc_id", docID,
		"chars", len(text),
		"chunks", len(chunks),
		"path", locator,
	)
	return locator, nil
}

// Discard removes the persisted vector index for docID. Upload calls it to
// back out an index whose metadata record could not be saved, so no index is
// left behind for a document the store does not know about.
func (s *Service) Discard(ctx context.Context, docID string) error {
	if err := s.vectors.Delete(ctx, docID); err != nil {
		return fmt.Errorf("delete vector index: %w", err)
	}
	return nil
}

// Answer retrieves the chunks most similar to question from the document's
// index and asks the generator for a grounded answer.
//
// A missing index is returned as an error satisfying
// errors.Is(err, store.ErrIndexNotFound) so the caller can tell the user to
// upload first. Every other query-side failure is converted into an
// answer-shaped fallback result: a chat interface always has text to render.
func (s *Service) Answer(ctx context.Context, question, docID string, history []types.ConversationTurn) (*types.QAResult, error) {
	idx, err := s.vectors.Load(ctx, docID)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return nil, err
		}
		s.logger.Error("load index failed", "doc_id", docID, "error", err)
		return fallback(err), nil
	}

	chunks, err := idx.Search(ctx, question, store.DefaultTopK)
	if err != nil {
		s.logger.Error("retrieval failed", "doc_id", docID, "error", err)
		return fallback(err), nil
	}

	sources := make([]string, len(chunks))
	for i, chunk := range chunks {
		sources[i] = chunk.Content
	}

	prompt := buildPrompt(sources, question)
	if n, err := countTokens(systemPrompt + prompt); err == nil {
		s.logger.Debug("prompt assembled", "doc_id", docID, "tokens", n, "chunks", len(chunks))
	}

	start := time.Now()
	answer, err := s.generator.Generate(ctx, systemPrompt, prompt, history)
	if err != nil {
		s.logger.Error("generation failed", "doc_id", docID, "error", err)
		if strings.Contains(err.Error(), accessNotEnabledMarker) {
			return &types.QAResult{
				Answer:  accessNotEnabledAnswer,
				Sources: []string{},
				Error:   err.Error(),
			}, nil
		}
		return fallback(err), nil
	}
	s.logger.Info("answer generated", "doc_id", docID, "took", time.Since(start))

	return &types.QAResult{Answer: answer, Sources: sources}, nil
}

func fallback(err error) *types.QAResult {
	return &types.QAResult{
		Answer:  fallbackAnswer,
		Sources: []string{},
		Error:   err.Error(),
	}
}
