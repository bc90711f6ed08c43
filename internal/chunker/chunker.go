// Package chunker splits document text into overlapping fixed-size
// passages for retrieval indexing.
package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultOverlap is the default number of overlapping characters
// shared by adjacent chunks.
const DefaultOverlap = 50

// boundaryLookback is the fraction of the chunk size scanned backwards
// for a sentence or whitespace boundary before hard-splitting.
const boundaryLookback = 5

// Chunker splits text into overlapping chunks. Splitting prefers
// sentence and whitespace boundaries near the size limit and falls
// back to a hard character split. The same input and parameters always
// yield the same chunk sequence.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) { c.chunkSize = size }
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) { c.overlap = overlap }
}

// New creates a chunker. It fails with domain.ErrInvalidConfig unless
// 0 <= overlap < chunkSize.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidConfig, c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < chunk size %d",
			domain.ErrInvalidConfig, c.overlap, c.chunkSize)
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into chunks attributed to source. Empty or
// whitespace-only input yields no chunks. Each chunk records its byte
// offsets; chunk N+1 starts exactly overlap bytes before chunk N ends,
// so the text is reconstructible from the chunk sequence.
func (c *Chunker) Chunk(text, source string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	textLen := len(text)
	estimated := textLen/(c.chunkSize-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	position := 0

	for start < textLen {
		end := start + c.chunkSize
		if end >= textLen {
			end = textLen
		} else {
			end = c.snapBoundary(text, start, end)
		}

		content := text[start:end]
		if strings.TrimSpace(content) == "" && len(chunks) > 0 {
			// A whitespace-only window is folded into the previous chunk.
			// Dropping it would leave a hole in the offset sequence and
			// break reconstruction from the chunk chain.
			prev := &chunks[len(chunks)-1]
			prev.End = end
			prev.Content = text[prev.Start:end]
		} else {
			chunks = append(chunks, domain.Chunk{
				ID:       ChunkID(source, position),
				Source:   source,
				Position: position,
				Content:  content,
				Start:    start,
				End:      end,
				Metadata: map[string]any{
					"chunk_size": c.chunkSize,
					"overlap":    c.overlap,
				},
			})
			position++
		}

		if end >= textLen {
			break
		}
		start = end - c.overlap
	}

	return chunks, nil
}

// snapBoundary moves a proposed chunk end backwards to the nearest
// sentence end, or failing that the nearest whitespace, within the
// lookback window. The snapped end always stays far enough past start
// that the next chunk makes progress.
func (c *Chunker) snapBoundary(text string, start, end int) int {
	window := c.chunkSize / boundaryLookback
	minEnd := start + c.overlap + 1
	if low := end - window; low > minEnd {
		minEnd = low
	}

	for i := end - 1; i >= minEnd; i-- {
		switch text[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	for i := end - 1; i >= minEnd; i-- {
		if text[i] == ' ' || text[i] == '\t' {
			return i + 1
		}
	}
	return end
}

// ChunkID derives the stable chunk identifier from the source document
// identity and chunk position. Identical input always produces the
// same ID, which makes re-indexing idempotent.
func ChunkID(source string, position int) string {
	name := "salescope://" + source + "#" + strconv.Itoa(position)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
