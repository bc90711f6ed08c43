package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/chunker"
	"github.com/ledger-labs/salescope/internal/core/domain"
)

func newIndexingFixture(t *testing.T, embedder *fakeEmbedder, extractor *fakeExtractor) (*IndexingService, *memChunkStore) {
	t.Helper()
	ch, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(10))
	require.NoError(t, err)
	store := newMemChunkStore()
	return NewIndexingService(extractor, ch, embedder, store), store
}

func TestIndexDocument(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{
		"report.txt": strings.Repeat("Sales were strong this quarter. ", 20),
	}}
	svc, store := newIndexingFixture(t, &fakeEmbedder{}, extractor)

	count, err := svc.IndexDocument(context.Background(), "/docs/report.txt")
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	chunks := store.chunks["report.txt"]
	require.Len(t, chunks, count)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Embedding)
		assert.False(t, chunk.IndexedAt.IsZero())
		assert.Equal(t, "report.txt", chunk.Source)
	}
}

func TestIndexDocument_UnsupportedFormat(t *testing.T) {
	svc, _ := newIndexingFixture(t, &fakeEmbedder{}, &fakeExtractor{})
	_, err := svc.IndexDocument(context.Background(), "/docs/data.csv")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIndexDocument_EmptyDocumentClearsStale(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"report.txt": "   \n"}}
	svc, store := newIndexingFixture(t, &fakeEmbedder{}, extractor)
	store.chunks["report.txt"] = []domain.Chunk{{ID: "stale"}}

	count, err := svc.IndexDocument(context.Background(), "/docs/report.txt")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.chunks["report.txt"])
}

func TestIndexDocument_RetriesEmbedding(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"report.txt": "Quarterly revenue details."}}
	embedder := &fakeEmbedder{failures: 2}
	svc, store := newIndexingFixture(t, embedder, extractor)

	count, err := svc.IndexDocument(context.Background(), "/docs/report.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, embedder.calls)
	assert.Len(t, store.chunks["report.txt"], 1)
}

func TestIndexDocument_SkipsAfterBoundedRetries(t *testing.T) {
	extractor := &fakeExtractor{texts: map[string]string{"report.txt": "Quarterly revenue details."}}
	embedder := &fakeEmbedder{failures: maxEmbedAttempts}
	svc, store := newIndexingFixture(t, embedder, extractor)

	_, err := svc.IndexDocument(context.Background(), "/docs/report.txt")
	require.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, maxEmbedAttempts, embedder.calls)
	assert.Empty(t, store.chunks, "failed document must leave no partial chunks")
}

func TestIndexDirectory_SkipAndContinue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("Solid quarterly numbers."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("irrelevant"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte("a,b"), 0o644))

	extractor := &fakeExtractor{
		texts: map[string]string{"good.txt": "Solid quarterly numbers."},
		errs:  map[string]error{"bad.txt": domain.ErrUnsupportedFormat},
	}
	svc, _ := newIndexingFixture(t, &fakeEmbedder{}, extractor)

	report, err := svc.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed["good.txt"])
	require.Contains(t, report.Failed, "bad.txt")
	assert.NotContains(t, report.Indexed, "skip.csv")
	assert.Equal(t, 1, report.TotalChunks())
}

func TestDeleteDocument(t *testing.T) {
	svc, store := newIndexingFixture(t, &fakeEmbedder{}, &fakeExtractor{})
	store.chunks["report.txt"] = []domain.Chunk{{ID: "c1"}}

	require.NoError(t, svc.DeleteDocument(context.Background(), "report.txt"))
	assert.NotContains(t, store.chunks, "report.txt")

	err := svc.DeleteDocument(context.Background(), "report.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
