package domain

import (
	"context"

	"github.com/google/uuid"
)

// VectorPoint is one entry in the vector index. The key is
// "{document_id}-{chunk_index}"; the remaining fields form the payload.
type VectorPoint struct {
	Key        string
	Embedding  []float32
	DocumentID uuid.UUID
	SourceFile string
	ChunkIndex int
	Title      string
	Content    string
	Metadata   ChunkMetadata
}

// SearchHit is a similarity search result with its payload.
type SearchHit struct {
	Key        string
	Score      float32
	DocumentID string
	SourceFile string
	ChunkIndex int
	Title      string
	Content    string
	Metadata   ChunkMetadata
}

// VectorIndex persists embeddings with payload and supports cosine
// similarity search. Operations surface transport errors to the caller
// without internal retries.
type VectorIndex interface {
	// EnsureCollection prepares storage for vectors of the given
	// dimensionality. Idempotent: it must not fail when the collection
	// already exists with compatible configuration.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or replaces points by key.
	Upsert(ctx context.Context, points []VectorPoint) error

	// Search returns up to limit hits ordered by descending similarity.
	Search(ctx context.Context, queryVector []float32, limit int) ([]SearchHit, error)

	// DeleteByDocumentID removes every point belonging to the document.
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int64, error)
}
