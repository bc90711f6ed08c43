package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// NoInformationAnswer is returned when nothing relevant is indexed.
const NoInformationAnswer = "I don't have any information about that in the indexed documents."

// snippetLength caps citation snippets.
const snippetLength = 160

// RetrievalConfig tunes the retrieval pipeline. Zero values get defaults.
type RetrievalConfig struct {
	// TopK is the default number of chunks retrieved (default: 5).
	TopK int

	// MinSimilarity drops hits scoring below it (default: 0.3).
	MinSimilarity float64

	// ContextBudget caps the total characters of retrieved context
	// passed to the LLM (default: 6000). Lowest-scoring hits are dropped
	// first when over budget.
	ContextBudget int
}

// RetrievalService answers questions over the document index. The LLM
// is optional: without one, Answer returns the ranked passages directly.
type RetrievalService struct {
	embedder driven.EmbeddingService
	chunks   driven.ChunkStore
	llm      driven.LLMService
	cfg      RetrievalConfig
}

// NewRetrievalService creates a new retrieval service. llm may be nil.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	chunks driven.ChunkStore,
	llm driven.LLMService,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = 0.3
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 6000
	}
	return &RetrievalService{
		embedder: embedder,
		chunks:   chunks,
		llm:      llm,
		cfg:      cfg,
	}
}

// Retrieve returns the topK most similar chunks above the similarity
// threshold, descending by score.
func (s *RetrievalService) Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievalHit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	logger.Section("Retrieval")
	logger.Debug("question: %q, topK: %d", question, topK)

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.chunks.Search(ctx, vector, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= s.cfg.MinSimilarity {
			filtered = append(filtered, hit)
		}
	}
	logger.Debug("%d hits, %d above threshold %.2f", len(hits), len(filtered), s.cfg.MinSimilarity)
	return filtered, nil
}

// Answer retrieves supporting passages and synthesises an answer with
// citations. When nothing relevant is found the answer says so instead
// of guessing.
func (s *RetrievalService) Answer(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	hits, err := s.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &domain.Answer{
			Found: false,
			Text:  NoInformationAnswer,
		}, nil
	}

	hits = s.fitBudget(hits)
	citations := buildCitations(hits)

	if s.llm == nil {
		return &domain.Answer{
			Found:     true,
			Text:      formatPassages(hits),
			Citations: citations,
		}, nil
	}

	answer, err := s.synthesize(ctx, question, hits)
	if err != nil {
		// A dead LLM degrades to ranked passages rather than failing
		// the whole question.
		logger.Warn("answer synthesis failed, returning passages: %v", err)
		return &domain.Answer{
			Found:     true,
			Text:      formatPassages(hits),
			Citations: citations,
		}, nil
	}

	return &domain.Answer{
		Found:     true,
		Text:      answer,
		Citations: citations,
	}, nil
}

// fitBudget drops the lowest-scoring hits until the combined content
// fits the context budget. At least one hit always survives.
func (s *RetrievalService) fitBudget(hits []domain.RetrievalHit) []domain.RetrievalHit {
	total := 0
	for i, hit := range hits {
		total += len(hit.Chunk.Content)
		if total > s.cfg.ContextBudget && i > 0 {
			logger.Debug("context budget reached, keeping %d of %d hits", i, len(hits))
			return hits[:i]
		}
	}
	return hits
}

// synthesize asks the LLM to answer from the retrieved passages only.
func (s *RetrievalService) synthesize(ctx context.Context, question string, hits []domain.RetrievalHit) (string, error) {
	var b strings.Builder
	b.WriteString("Answer the question using only the numbered context passages below. ")
	b.WriteString("Cite passages as [1], [2] etc. If the context does not contain the answer, say so.\n\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, hit.Chunk.Source, hit.Chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)

	answer, err := s.llm.Generate(ctx, b.String(), driven.GenerateOptions{Temperature: 0.1})
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrGenerationService)
	}
	return answer, nil
}

// formatPassages renders ranked passages as the answer text for
// LLM-less operation.
func formatPassages(hits []domain.RetrievalHit) string {
	var b strings.Builder
	b.WriteString("Most relevant passages:\n\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "[%d] %s (score %.2f)\n%s\n\n", i+1, hit.Chunk.Source, hit.Score, hit.Chunk.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildCitations converts hits into citations with bounded snippets.
func buildCitations(hits []domain.RetrievalHit) []domain.Citation {
	citations := make([]domain.Citation, len(hits))
	for i, hit := range hits {
		snippet := hit.Chunk.Content
		if len(snippet) > snippetLength {
			snippet = snippet[:snippetLength] + "..."
		}
		citations[i] = domain.Citation{
			Source:  hit.Chunk.Source,
			ChunkID: hit.Chunk.ID,
			Snippet: snippet,
			Score:   hit.Score,
		}
	}
	return citations
}
