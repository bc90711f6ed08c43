package driving

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// Retriever answers questions from the document index.
type Retriever interface {
	// Retrieve returns the topK most similar chunks to the question,
	// descending by score. An empty result means nothing exceeded the
	// similarity threshold.
	Retrieve(ctx context.Context, question string, topK int) ([]domain.RetrievalHit, error)

	// Answer retrieves supporting passages and synthesises a natural
	// language answer with citations. Without an LLM the answer text
	// is the ranked passages themselves. When nothing relevant is
	// found the answer says so explicitly instead of fabricating.
	Answer(ctx context.Context, question string, topK int) (*domain.Answer, error)
}
