package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"book-rag/internal/adapter/openai"

	"github.com/stretchr/testify/assert"
)

func newEmbedServer(t *testing.T, dimension int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-ada-002", req.Model)
		assert.NotEmpty(t, req.Input)

		vector := make([]float32, dimension)
		for i := range vector {
			vector[i] = 0.5
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": vector}},
		})
	}))
}

func TestEmbedder_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the provider vector", func(t *testing.T) {
		var calls atomic.Int32
		server := newEmbedServer(t, 4, &calls)
		defer server.Close()

		embedder := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:           server.URL,
			APIKey:            "test-key",
			Dimension:         4,
			RequestsPerSecond: 100,
		}, server.Client())

		vector, err := embedder.Embed(ctx, "some chunk text")
		assert.NoError(t, err)
		assert.Len(t, vector, 4)
		assert.Equal(t, 4, embedder.Dimension())
	})

	t.Run("Serves repeated text from the cache", func(t *testing.T) {
		var calls atomic.Int32
		server := newEmbedServer(t, 4, &calls)
		defer server.Close()

		embedder := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:           server.URL,
			APIKey:            "test-key",
			Dimension:         4,
			RequestsPerSecond: 100,
		}, server.Client())

		first, err := embedder.Embed(ctx, "repeated text")
		assert.NoError(t, err)
		second, err := embedder.Embed(ctx, "repeated text")
		assert.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Rejects a dimension mismatch", func(t *testing.T) {
		var calls atomic.Int32
		server := newEmbedServer(t, 3, &calls)
		defer server.Close()

		embedder := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:           server.URL,
			APIKey:            "test-key",
			Dimension:         1536,
			RequestsPerSecond: 100,
		}, server.Client())

		_, err := embedder.Embed(ctx, "text")
		assert.ErrorContains(t, err, "unexpected embedding dimension")
	})

	t.Run("Surfaces upstream errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		}))
		defer server.Close()

		embedder := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:           server.URL,
			APIKey:            "test-key",
			Dimension:         4,
			RequestsPerSecond: 100,
		}, server.Client())

		_, err := embedder.Embed(ctx, "text")
		assert.ErrorContains(t, err, "429")
	})

	t.Run("Honors context cancellation while rate limited", func(t *testing.T) {
		var calls atomic.Int32
		server := newEmbedServer(t, 4, &calls)
		defer server.Close()

		embedder := openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:           server.URL,
			APIKey:            "test-key",
			Dimension:         4,
			RequestsPerSecond: 1,
		}, server.Client())

		// First call consumes the burst; the second has to wait and the
		// context expires before the limiter releases it.
		_, err := embedder.Embed(ctx, "first")
		assert.NoError(t, err)

		shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = embedder.Embed(shortCtx, "second")
		assert.Error(t, err)
	})
}
