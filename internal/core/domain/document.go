package domain

import "time"

// Chunk represents a bounded passage of a source document, the unit of
// retrieval. Chunk IDs are derived from the source identity and chunk
// position so that re-indexing a document is idempotent.
type Chunk struct {
	// ID is the stable identifier, unique per chunk.
	ID string

	// Source is the originating document path or name.
	Source string

	// Position is the ordinal position within the document.
	Position int

	// Content is the passage text.
	Content string

	// Start and End are byte offsets into the extracted document text.
	// Chunks overlap: Start of chunk N+1 is End of chunk N minus the
	// configured overlap.
	Start int
	End   int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains auxiliary key-value attributes.
	Metadata map[string]any

	// IndexedAt is when the chunk was written to the store.
	IndexedAt time.Time
}

// RetrievalHit is a chunk with its similarity score for a query.
type RetrievalHit struct {
	Chunk Chunk
	Score float64
}

// Citation points at a supporting passage used in an answer.
type Citation struct {
	Source  string
	ChunkID string
	Snippet string
	Score   float64
}

// Answer is the result of the retrieval pipeline's answer synthesis.
// When Found is false no chunk exceeded the similarity threshold and
// Text carries an explicit no-information statement.
type Answer struct {
	Found     bool
	Text      string
	Citations []Citation
}

// IndexReport summarises an indexing run over one or more documents.
type IndexReport struct {
	// Indexed maps each successfully indexed source to its chunk count.
	Indexed map[string]int

	// Failed maps each skipped source to the error that stopped it.
	Failed map[string]error
}

// TotalChunks returns the number of chunks indexed across all sources.
func (r *IndexReport) TotalChunks() int {
	total := 0
	for _, n := range r.Indexed {
		total += n
	}
	return total
}
