package driven

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// SimilarityMetric selects how the chunk store ranks vectors.
// It is fixed at store construction time.
type SimilarityMetric string

const (
	// MetricCosine ranks by cosine similarity, higher is better.
	MetricCosine SimilarityMetric = "cosine"

	// MetricL2 ranks by negated Euclidean distance so that higher is
	// still better and callers can treat scores uniformly.
	MetricL2 SimilarityMetric = "l2"
)

// ChunkFilter restricts a similarity search by chunk metadata.
type ChunkFilter struct {
	// Source restricts results to chunks of one document.
	Source string
}

// ChunkStore persists document chunks with their vectors and supports
// exact nearest-neighbour retrieval. Search is deterministic: equal
// index state and query always yield the same ordering.
type ChunkStore interface {
	// ReplaceSource atomically replaces all chunks for a source:
	// either the old chunks are gone and the new ones present, or the
	// operation fails and the prior state is preserved.
	ReplaceSource(ctx context.Context, source string, chunks []domain.Chunk) error

	// Search returns the topK nearest chunks to the query vector,
	// descending by score, optionally restricted by filter.
	Search(ctx context.Context, vector []float32, topK int, filter *ChunkFilter) ([]domain.RetrievalHit, error)

	// DeleteSource removes all chunks for a document.
	DeleteSource(ctx context.Context, source string) error

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Sources lists the indexed document sources.
	Sources(ctx context.Context) ([]string, error)
}
