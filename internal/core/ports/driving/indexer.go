package driving

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// Indexer turns document files into searchable vector chunks.
type Indexer interface {
	// IndexDocument indexes one file and returns the number of chunks
	// written. Re-indexing replaces all prior chunks for the source.
	IndexDocument(ctx context.Context, path string) (int, error)

	// IndexDirectory indexes every supported file under dir, in
	// parallel across documents. One document's failure never aborts
	// the rest.
	IndexDirectory(ctx context.Context, dir string) (*domain.IndexReport, error)

	// DeleteDocument removes a document's chunks from the index.
	DeleteDocument(ctx context.Context, source string) error
}
