package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"book-rag/internal/domain"
)

const (
	defaultEmbeddingModel     = "text-embedding-ada-002"
	defaultEmbeddingDimension = 1536
	embedCacheSize            = 512
)

// EmbedderConfig configures the embeddings client.
type EmbedderConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimension         int
	Timeout           time.Duration
	RequestsPerSecond int
}

// Embedder calls the OpenAI embeddings endpoint. Requests are rate limited
// to respect the provider's quota, and recent results are cached so repeated
// queries skip a round-trip.
type Embedder struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
	limiter   *rate.Limiter
	cache     *lru.Cache[string, []float32]
}

// NewEmbedder creates an Embedder. An httpClient of nil gets a default
// client with the configured timeout.
func NewEmbedder(cfg EmbedderConfig, httpClient *http.Client) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultEmbeddingModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = defaultEmbeddingDimension
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cache, _ := lru.New[string, []float32](embedCacheSize)

	return &Embedder{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    httpClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		cache:     cache,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := domain.Fingerprint([]byte(text))
	if vector, ok := e.cache.Get(cacheKey); ok {
		return vector, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit wait: %w", err)
	}

	start := time.Now()

	payload, err := json.Marshal(embeddingRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		slog.Error("openai_embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("failed to call embeddings endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("openai_embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var respBody embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(respBody.Data) == 0 {
		return nil, fmt.Errorf("embeddings endpoint returned no data")
	}

	vector := respBody.Data[0].Embedding
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(vector), e.dimension)
	}

	e.cache.Add(cacheKey, vector)

	slog.Debug("openai_embed_completed",
		slog.Int("text_len", len(text)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return vector, nil
}

// Dimension returns the configured vector dimensionality.
func (e *Embedder) Dimension() int {
	return e.dimension
}

var _ domain.EmbeddingProvider = (*Embedder)(nil)
