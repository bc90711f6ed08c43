package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/ledger-labs/salescope/internal/chunker"
	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.Indexer = (*IndexingService)(nil)

// maxEmbedAttempts bounds whole-document embedding retries before the
// document is skipped.
const maxEmbedAttempts = 3

// indexWorkers bounds concurrent document indexing in IndexDirectory.
const indexWorkers = 4

// IndexingService turns document files into embedded chunks in the
// chunk store.
type IndexingService struct {
	extractor driven.TextExtractor
	chunker   *chunker.Chunker
	embedder  driven.EmbeddingService
	chunks    driven.ChunkStore
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	extractor driven.TextExtractor,
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	chunks driven.ChunkStore,
) *IndexingService {
	return &IndexingService{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		chunks:    chunks,
	}
}

// IndexDocument extracts, chunks, embeds and stores one file. The store
// write replaces all prior chunks for the source, so re-indexing is
// idempotent. Returns the number of chunks written.
func (s *IndexingService) IndexDocument(ctx context.Context, path string) (int, error) {
	source := filepath.Base(path)
	logger.Section("Indexing " + source)

	if !s.extractor.Supports(path) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	text, err := s.extractor.ExtractText(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", source, err)
	}

	chunks, err := s.chunker.Chunk(text, source)
	if err != nil {
		return 0, fmt.Errorf("chunk %s: %w", source, err)
	}
	logger.Debug("%s: %d chunks from %d bytes", source, len(chunks), len(text))

	if len(chunks) > 0 {
		vectors, err := s.embedChunks(ctx, chunks)
		if err != nil {
			return 0, fmt.Errorf("embed %s: %w", source, err)
		}

		now := time.Now().UTC()
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
			chunks[i].IndexedAt = now
		}
	}

	// Empty documents still replace, clearing any stale chunks.
	if err := s.chunks.ReplaceSource(ctx, source, chunks); err != nil {
		return 0, fmt.Errorf("store %s: %w", source, err)
	}

	logger.Info("indexed %s: %d chunks", source, len(chunks))
	return len(chunks), nil
}

// embedChunks embeds all chunk contents, retrying the whole document a
// bounded number of times. A partial embedding never reaches the store.
func (s *IndexingService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var lastErr error
	for attempt := 1; attempt <= maxEmbedAttempts; attempt++ {
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			if len(vectors) != len(chunks) {
				return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
			}
			return vectors, nil
		}
		lastErr = err
		logger.Warn("embedding attempt %d/%d failed: %v", attempt, maxEmbedAttempts, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// IndexDirectory indexes every supported file under dir. Documents are
// processed in parallel; one document failing is recorded and skipped
// while the rest continue.
func (s *IndexingService) IndexDirectory(ctx context.Context, dir string) (*domain.IndexReport, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if s.extractor.Supports(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	report := &domain.IndexReport{
		Indexed: make(map[string]int),
		Failed:  make(map[string]error),
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, indexWorkers)
	)

	for _, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			count, err := s.IndexDocument(ctx, path)
			source := filepath.Base(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[source] = err
				return
			}
			report.Indexed[source] = count
		}()
	}
	wg.Wait()

	logger.Info("directory index complete: %d ok, %d failed", len(report.Indexed), len(report.Failed))
	return report, nil
}

// DeleteDocument removes a document's chunks from the index.
func (s *IndexingService) DeleteDocument(ctx context.Context, source string) error {
	if err := s.chunks.DeleteSource(ctx, source); err != nil {
		return fmt.Errorf("delete %s: %w", source, err)
	}
	logger.Info("deleted %s from index", source)
	return nil
}
