package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore persists document chunks with their embeddings and serves
// exact nearest-neighbour search over them.
type ChunkStore struct {
	db     *sql.DB
	metric driven.SimilarityMetric
}

// ReplaceSource atomically replaces all chunks for a source. A failure
// rolls back the whole batch so the previous state of the source survives.
func (c *ChunkStore) ReplaceSource(ctx context.Context, source string, chunks []domain.Chunk) error {
	if source == "" {
		return fmt.Errorf("%w: source must not be empty", domain.ErrInvalidInput)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source, position, content, start_offset, end_offset, embedding, metadata, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %s: %w", chunk.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID,
			chunk.Source,
			chunk.Position,
			chunk.Content,
			chunk.Start,
			chunk.End,
			encodeVector(chunk.Embedding),
			string(metadata),
			chunk.IndexedAt,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Search returns the topK chunks most similar to the query vector,
// ordered by score descending with chunk ID as the tie-break.
func (c *ChunkStore) Search(ctx context.Context, vector []float32, topK int, filter *driven.ChunkFilter) ([]domain.RetrievalHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector must not be empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	query := `SELECT id, source, position, content, start_offset, end_offset, embedding, metadata, indexed_at FROM chunks`
	var args []any
	if filter != nil && filter.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var (
			chunk    domain.Chunk
			blob     []byte
			metadata string
		)
		err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Position,
			&chunk.Content,
			&chunk.Start,
			&chunk.End,
			&blob,
			&metadata,
			&chunk.IndexedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}

		chunk.Embedding = decodeVector(blob)
		if len(chunk.Embedding) != len(vector) {
			continue
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for chunk %s: %w", chunk.ID, err)
			}
		}

		hits = append(hits, domain.RetrievalHit{
			Chunk: chunk,
			Score: score(c.metric, vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteSource removes all chunks for a source.
func (c *ChunkStore) DeleteSource(ctx context.Context, source string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no chunks for source %q", domain.ErrNotFound, source)
	}
	return nil
}

// CountChunks returns the total number of indexed chunks.
func (c *ChunkStore) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// Sources returns the distinct indexed sources in lexical order.
func (c *ChunkStore) Sources(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT source FROM chunks ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// encodeVector packs a float32 slice into a little-endian byte blob.
func encodeVector(vector []float32) []byte {
	blob := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// decodeVector unpacks a little-endian byte blob into a float32 slice.
func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// score computes similarity between two equal-length vectors. Cosine
// similarity is higher-is-better already; L2 distance is negated so both
// metrics sort descending.
func score(metric driven.SimilarityMetric, a, b []float32) float64 {
	switch metric {
	case driven.MetricL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -math.Sqrt(sum)
	default:
		var dot, normA, normB float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			normA += float64(a[i]) * float64(a[i])
			normB += float64(b[i]) * float64(b[i])
		}
		if normA == 0 || normB == 0 {
			return 0
		}
		return dot / (math.Sqrt(normA) * math.Sqrt(normB))
	}
}
