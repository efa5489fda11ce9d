package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"book-rag/internal/domain"
)

type vectorIndex struct {
	pool *pgxpool.Pool
}

// NewVectorIndex creates a pgvector-backed VectorIndex. Points live in the
// chunk_vectors table; similarity is cosine via the <=> operator.
func NewVectorIndex(pool *pgxpool.Pool) domain.VectorIndex {
	return &vectorIndex{pool: pool}
}

type queryExecutor interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (v *vectorIndex) getExecutor(ctx context.Context) queryExecutor {
	if tx := ExtractTx(ctx); tx != nil {
		return tx
	}
	return v.pool
}

func (v *vectorIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS chunk_vectors (
				point_key   text PRIMARY KEY,
				document_id uuid NOT NULL,
				source_file text NOT NULL,
				chunk_index int NOT NULL,
				title       text,
				content     text NOT NULL,
				metadata    jsonb,
				embedding   vector(%d) NOT NULL
			)`, dimension),
		`CREATE INDEX IF NOT EXISTS chunk_vectors_document_id_idx ON chunk_vectors (document_id)`,
		`CREATE INDEX IF NOT EXISTS chunk_vectors_embedding_idx ON chunk_vectors USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range statements {
		if _, err := v.getExecutor(ctx).Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure vector collection: %w", err)
		}
	}
	return nil
}

func (v *vectorIndex) Upsert(ctx context.Context, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO chunk_vectors (point_key, document_id, source_file, chunk_index, title, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (point_key) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			source_file = EXCLUDED.source_file,
			chunk_index = EXCLUDED.chunk_index,
			title       = EXCLUDED.title,
			content     = EXCLUDED.content,
			metadata    = EXCLUDED.metadata,
			embedding   = EXCLUDED.embedding
	`

	batch := &pgx.Batch{}
	for _, p := range points {
		metadata, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal point metadata: %w", err)
		}
		batch.Queue(query, p.Key, p.DocumentID, p.SourceFile, p.ChunkIndex, p.Title, p.Content, metadata, pgvector.NewVector(p.Embedding))
	}

	results := v.getExecutor(ctx).SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector point: %w", err)
		}
	}
	return nil
}

func (v *vectorIndex) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SearchHit, error) {
	query := `
		SELECT point_key, document_id::text, source_file, chunk_index, title, content, metadata,
		       1 - (embedding <=> $1) AS score
		FROM chunk_vectors
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := v.getExecutor(ctx).Query(ctx, query, pgvector.NewVector(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var hit domain.SearchHit
		var metadata []byte
		var score float64
		if err := rows.Scan(&hit.Key, &hit.DocumentID, &hit.SourceFile, &hit.ChunkIndex, &hit.Title, &hit.Content, &metadata, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &hit.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal point metadata: %w", err)
			}
		}
		hit.Score = float32(score)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (v *vectorIndex) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	query := `DELETE FROM chunk_vectors WHERE document_id = $1`
	_, err := v.getExecutor(ctx).Exec(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

func (v *vectorIndex) Count(ctx context.Context) (int64, error) {
	var count int64
	err := v.getExecutor(ctx).QueryRow(ctx, `SELECT count(*) FROM chunk_vectors`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return count, nil
}
