package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
)

// ChunkRepository stores transcript chunks with their embeddings.
// Similarity search is delegated to the pgvector index; this code only
// issues the distance query.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceForVideo deletes every chunk for the video and inserts the new
// set in one transaction. Running it twice with the same input leaves the
// same rows; there is no partial-update path.
func (r *ChunkRepository) ReplaceForVideo(ctx context.Context, videoID string, chunks []entity.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE video_id = $1;`, videoID); err != nil {
		return fmt.Errorf("pg: delete chunks for %s: %w", videoID, err)
	}

	const ins = `
INSERT INTO chunks (id, video_id, chunk_index, text, embedding, char_start, char_end)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(ins, c.ID, c.VideoID, c.Index, c.Text, pgvector.NewVector(c.Embedding), c.CharStart, c.CharEnd)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pg: insert %d chunks for %s: %w", len(chunks), videoID, err)
	}

	return tx.Commit(ctx)
}

// CountForVideo returns the number of stored chunks for a video.
func (r *ChunkRepository) CountForVideo(ctx context.Context, videoID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE video_id = $1;`, videoID).Scan(&n)
	return n, err
}

// SearchSimilar returns the topK chunks of a video closest to the query
// vector by cosine distance, best first.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, videoID string, queryVec []float32, topK int) ([]entity.ScoredChunk, error) {
	const q = `
SELECT id, video_id, chunk_index, text, char_start, char_end,
       1 - (embedding <=> $2) AS score
FROM chunks
WHERE video_id = $1
ORDER BY embedding <=> $2
LIMIT $3;
`
	rows, err := r.pool.Query(ctx, q, videoID, pgvector.NewVector(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("pg: similarity search for %s: %w", videoID, err)
	}
	defer rows.Close()

	var out []entity.ScoredChunk
	for rows.Next() {
		var sc entity.ScoredChunk
		if err := rows.Scan(&sc.ID, &sc.VideoID, &sc.Index, &sc.Text, &sc.CharStart, &sc.CharEnd, &sc.Score); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
