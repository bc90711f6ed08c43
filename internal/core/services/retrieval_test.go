package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

func hit(id, source, content string, score float64) domain.RetrievalHit {
	return domain.RetrievalHit{
		Chunk: domain.Chunk{ID: id, Source: source, Content: content},
		Score: score,
	}
}

func TestRetrieve_FiltersBelowThreshold(t *testing.T) {
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "a.md", "relevant passage", 0.9),
		hit("c2", "a.md", "borderline passage", 0.31),
		hit("c3", "b.md", "noise", 0.1),
	}
	svc := NewRetrievalService(&fakeEmbedder{}, store, nil, RetrievalConfig{MinSimilarity: 0.3})

	hits, err := svc.Retrieve(context.Background(), "quarterly revenue", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "c2", hits[1].Chunk.ID)
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	svc := NewRetrievalService(&fakeEmbedder{}, newMemChunkStore(), nil, RetrievalConfig{})
	_, err := svc.Retrieve(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnswer_NoInformation(t *testing.T) {
	svc := NewRetrievalService(&fakeEmbedder{}, newMemChunkStore(), nil, RetrievalConfig{})

	answer, err := svc.Answer(context.Background(), "what were the Q4 numbers", 5)
	require.NoError(t, err)
	assert.False(t, answer.Found)
	assert.Equal(t, NoInformationAnswer, answer.Text)
	assert.Empty(t, answer.Citations)
}

func TestAnswer_WithoutLLMReturnsPassages(t *testing.T) {
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "report.md", "Revenue grew 12% in Q3.", 0.8),
	}
	svc := NewRetrievalService(&fakeEmbedder{}, store, nil, RetrievalConfig{})

	answer, err := svc.Answer(context.Background(), "how did Q3 go", 5)
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Contains(t, answer.Text, "Revenue grew 12% in Q3.")
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "report.md", answer.Citations[0].Source)
	assert.Equal(t, "c1", answer.Citations[0].ChunkID)
}

func TestAnswer_LLMSynthesis(t *testing.T) {
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "report.md", "Revenue grew 12% in Q3.", 0.8),
	}
	llm := &scriptedLLM{replies: []string{"Q3 revenue grew 12% [1]."}}
	svc := NewRetrievalService(&fakeEmbedder{}, store, llm, RetrievalConfig{})

	answer, err := svc.Answer(context.Background(), "how did Q3 go", 5)
	require.NoError(t, err)
	assert.Equal(t, "Q3 revenue grew 12% [1].", answer.Text)
	require.Len(t, answer.Citations, 1)
}

func TestAnswer_LLMFailureDegradesToPassages(t *testing.T) {
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "report.md", "Revenue grew 12% in Q3.", 0.8),
	}
	llm := &scriptedLLM{err: domain.ErrGenerationService}
	svc := NewRetrievalService(&fakeEmbedder{}, store, llm, RetrievalConfig{})

	answer, err := svc.Answer(context.Background(), "how did Q3 go", 5)
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Contains(t, answer.Text, "Revenue grew 12% in Q3.")
}

func TestAnswer_ContextBudgetDropsLowestScores(t *testing.T) {
	long := strings.Repeat("x", 500)
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "a.md", long, 0.9),
		hit("c2", "a.md", long, 0.8),
		hit("c3", "a.md", long, 0.7),
	}
	svc := NewRetrievalService(&fakeEmbedder{}, store, nil, RetrievalConfig{ContextBudget: 1100})

	answer, err := svc.Answer(context.Background(), "question", 5)
	require.NoError(t, err)
	// Third hit exceeds the budget and is dropped; the top hits stay.
	assert.Len(t, answer.Citations, 2)
	assert.Equal(t, "c1", answer.Citations[0].ChunkID)
}

func TestAnswer_SnippetBounded(t *testing.T) {
	store := newMemChunkStore()
	store.hits = []domain.RetrievalHit{
		hit("c1", "a.md", strings.Repeat("long passage ", 50), 0.9),
	}
	svc := NewRetrievalService(&fakeEmbedder{}, store, nil, RetrievalConfig{})

	answer, err := svc.Answer(context.Background(), "question", 5)
	require.NoError(t, err)
	require.Len(t, answer.Citations, 1)
	assert.LessOrEqual(t, len(answer.Citations[0].Snippet), snippetLength+3)
}
