package domain

import "context"

// EmbeddingProvider maps text to a fixed-dimensional vector. A provider
// failure is fatal to the current document during ingestion and fatal to the
// current query during retrieval.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
