package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
)

// fakeEmbedder returns fixed-size vectors derived from text length so
// tests are deterministic without a real model.
type fakeEmbedder struct {
	dims     int
	failures int
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("%w: transient", domain.ErrEmbeddingService)
	}
	dims := f.dims
	if dims == 0 {
		dims = 3
	}
	vec := make([]float32, dims)
	vec[0] = float32(len(text))
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("%w: transient", domain.ErrEmbeddingService)
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		dims := f.dims
		if dims == 0 {
			dims = 3
		}
		vec := make([]float32, dims)
		vec[0] = float32(len(text))
		vecs[i] = vec
	}
	return vecs, nil
}

func (f *fakeEmbedder) Dimensions() int            { return max(f.dims, 3) }
func (f *fakeEmbedder) ModelName() string          { return "fake-embedder" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }

// memChunkStore is an in-memory chunk store with scripted search hits.
type memChunkStore struct {
	chunks map[string][]domain.Chunk
	hits   []domain.RetrievalHit
	err    error
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: make(map[string][]domain.Chunk)}
}

func (m *memChunkStore) ReplaceSource(_ context.Context, source string, chunks []domain.Chunk) error {
	if m.err != nil {
		return m.err
	}
	m.chunks[source] = chunks
	return nil
}

func (m *memChunkStore) Search(context.Context, []float32, int, *driven.ChunkFilter) ([]domain.RetrievalHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *memChunkStore) DeleteSource(_ context.Context, source string) error {
	if _, ok := m.chunks[source]; !ok {
		return domain.ErrNotFound
	}
	delete(m.chunks, source)
	return nil
}

func (m *memChunkStore) CountChunks(context.Context) (int, error) {
	total := 0
	for _, chunks := range m.chunks {
		total += len(chunks)
	}
	return total, nil
}

func (m *memChunkStore) Sources(context.Context) ([]string, error) {
	var sources []string
	for source := range m.chunks {
		sources = append(sources, source)
	}
	return sources, nil
}

// fakeSalesStore serves canned period and category totals.
type fakeSalesStore struct {
	periodTotals   map[int]map[int]decimal.Decimal // year -> period -> total
	categoryTotals map[string]decimal.Decimal
	rows           *domain.RowSet
	execErr        error
	lastQuery      string
}

func (f *fakeSalesStore) TotalsByPeriod(_ context.Context, year int, _ domain.Granularity, _ string) (map[int]decimal.Decimal, error) {
	totals := make(map[int]decimal.Decimal)
	for p, v := range f.periodTotals[year] {
		totals[p] = v
	}
	return totals, nil
}

func (f *fakeSalesStore) TotalsByCategory(context.Context, int, domain.Granularity, int) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for c, v := range f.categoryTotals {
		totals[c] = v
	}
	return totals, nil
}

func (f *fakeSalesStore) YearsWithData(context.Context) ([]int, error) {
	var years []int
	for y := range f.periodTotals {
		years = append(years, y)
	}
	return years, nil
}

func (f *fakeSalesStore) ExecuteSelect(_ context.Context, query string, _ int) (*domain.RowSet, error) {
	f.lastQuery = query
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.rows != nil {
		return f.rows, nil
	}
	return &domain.RowSet{Columns: []string{"count"}, Rows: [][]any{{int64(0)}}}, nil
}

func (f *fakeSalesStore) InsertTransactions(context.Context, []domain.Transaction) error {
	return nil
}

// scriptedLLM replays a fixed sequence of replies.
type scriptedLLM struct {
	replies []string
	calls   int
	err     error
}

func (s *scriptedLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return s.next()
}

func (s *scriptedLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return s.next()
}

func (s *scriptedLLM) next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.replies) {
		return "", fmt.Errorf("%w: script exhausted", domain.ErrGenerationService)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedLLM) ModelName() string          { return "scripted" }
func (s *scriptedLLM) Ping(context.Context) error { return s.err }

// fakeExtractor serves canned text per path basename.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, error) {
	base := basename(path)
	if err, ok := f.errs[base]; ok {
		return "", err
	}
	text, ok := f.texts[base]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (f *fakeExtractor) Supports(path string) bool {
	return strings.HasSuffix(path, ".txt") || strings.HasSuffix(path, ".md")
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// fakeExporter records the last export.
type fakeExporter struct {
	lastTitle   string
	lastContent string
	err         error
}

func (f *fakeExporter) Export(_ context.Context, title, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastTitle = title
	f.lastContent = content
	return "/tmp/report_test.md", nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
