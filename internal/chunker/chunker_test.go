package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultChunkSize, c.ChunkSize())
		assert.Equal(t, DefaultOverlap, c.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(200), WithOverlap(40))
		require.NoError(t, err)
		assert.Equal(t, 200, c.ChunkSize())
		assert.Equal(t, 40, c.Overlap())
	})

	t.Run("overlap equal to chunk size", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(WithOverlap(-1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	})

	t.Run("zero chunk size", func(t *testing.T) {
		_, err := New(WithChunkSize(0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	})
}

func TestChunk_EmptyInput(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t\n  "} {
		chunks, err := c.Chunk(input, "doc.txt")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunk_SmallInput(t *testing.T) {
	c, err := New(WithChunkSize(100), WithOverlap(20))
	require.NoError(t, err)

	chunks, err := c.Chunk("A small forecast note.", "note.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A small forecast note.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, "note.txt", chunks[0].Source)
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(WithChunkSize(80), WithOverlap(16))
	require.NoError(t, err)

	text := strings.Repeat("Quarterly revenue exceeded the plan. ", 30)

	first, err := c.Chunk(text, "forecast.txt")
	require.NoError(t, err)
	second, err := c.Chunk(text, "forecast.txt")
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].Start, second[i].Start)
		assert.Equal(t, first[i].End, second[i].End)
	}
}

func TestChunk_OverlapAndReconstruction(t *testing.T) {
	c, err := New(WithChunkSize(64), WithOverlap(12))
	require.NoError(t, err)

	text := strings.Repeat("The Q4 electronics forecast was raised to 180000 in October. ", 20)

	chunks, err := c.Chunk(text, "plan.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	// Adjacent chunks share exactly the configured overlap.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].End-c.Overlap(), chunks[i].Start,
			"chunk %d start should be previous end minus overlap", i)
	}

	// Concatenating the first chunk with the post-overlap suffix of
	// each later chunk reconstructs the original text.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i].Content[c.Overlap():])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunk_LongWhitespaceRun(t *testing.T) {
	c, err := New(WithChunkSize(50), WithOverlap(10))
	require.NoError(t, err)

	// The interior whitespace run is longer than a chunk window, so
	// whole windows contain nothing but spaces.
	text := "Revenue summary for the first half of the year." +
		strings.Repeat(" ", 120) +
		"Spending held flat while electronics sales accelerated."

	chunks, err := c.Chunk(text, "summary.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, i, chunks[i].Position)
		assert.Equal(t, chunks[i-1].End-c.Overlap(), chunks[i].Start,
			"chunk %d start should be previous end minus overlap", i)
	}

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i].Content[c.Overlap():])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunk_BoundarySnapping(t *testing.T) {
	c, err := New(WithChunkSize(50), WithOverlap(10))
	require.NoError(t, err)

	text := "First sentence about sales. Second sentence about forecasts. Third one about growth targets for the year."

	chunks, err := c.Chunk(text, "doc.txt")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Non-final chunks should end at a sentence or word boundary, not
	// mid-word.
	for _, ch := range chunks[:len(chunks)-1] {
		last := ch.Content[len(ch.Content)-1]
		assert.Contains(t, []byte{'.', '!', '?', '\n', ' ', '\t'}, last,
			"chunk %d ends mid-word: %q", ch.Position, ch.Content)
	}
}

func TestChunkID_Stable(t *testing.T) {
	a := ChunkID("reports/forecast.pdf", 3)
	b := ChunkID("reports/forecast.pdf", 3)
	other := ChunkID("reports/forecast.pdf", 4)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
}
