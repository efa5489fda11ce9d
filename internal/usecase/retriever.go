package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"book-rag/internal/domain"
)

// DefaultRetrieveLimit is the number of nearest chunks fetched per query.
const DefaultRetrieveLimit = 5

// Retriever embeds a query and fetches the top-K nearest chunks from the
// vector index.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error)
}

type retriever struct {
	encoder domain.EmbeddingProvider
	index   domain.VectorIndex
	logger  *slog.Logger
}

// NewRetriever creates a Retriever over the given provider and index.
func NewRetriever(encoder domain.EmbeddingProvider, index domain.VectorIndex, logger *slog.Logger) Retriever {
	return &retriever{
		encoder: encoder,
		index:   index,
		logger:  logger,
	}
}

// Retrieve embeds the query once and performs a single similarity search,
// trusting the index's returned ordering. An empty index yields an empty
// slice, not an error.
func (r *retriever) Retrieve(ctx context.Context, query string, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	queryVector, err := r.encoder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, domain.RetrievedChunk{
			Content:    hit.Content,
			Score:      hit.Score,
			DocumentID: hit.DocumentID,
			SourceFile: hit.SourceFile,
			Title:      hit.Title,
			ChunkIndex: hit.ChunkIndex,
			Metadata:   hit.Metadata,
		})
	}

	r.logger.Debug("retrieval_completed", "query_len", len(query), "hits", len(chunks))
	return chunks, nil
}
