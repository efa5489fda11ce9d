package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"book-rag/internal/domain"
)

const (
	defaultChatModel  = "gpt-3.5-turbo"
	answerMaxTokens   = 500
	answerTemperature = 0.3
)

// System instructions forbid outside knowledge and mandate the contract
// refusal phrase when the context is insufficient.
var (
	corpusSystemPrompt = "You are an AI assistant that answers questions based only on the provided context. " +
		"Do not use any external knowledge. If the answer is not in the provided context, " +
		"say '" + domain.CorpusRefusalPhrase + "'"

	selectionSystemPrompt = "You are an AI assistant that answers questions based only on the provided selected text. " +
		"Do not use any external knowledge. If the answer is not in the provided text, " +
		"say '" + domain.SelectionRefusalPhrase + "'"
)

// GeneratorConfig configures the chat completions client.
type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Generator produces grounded answers via the OpenAI chat completions
// endpoint, with bounded output length and low-temperature sampling.
type Generator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGenerator creates a Generator. An httpClient of nil gets a default
// client with the configured timeout.
func NewGenerator(cfg GeneratorConfig, httpClient *http.Client) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = defaultChatModel
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Generator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate answers a question against assembled corpus context.
func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, question)
	return g.complete(ctx, corpusSystemPrompt, user)
}

// GenerateFromSelection answers a question against a user-supplied excerpt.
func (g *Generator) GenerateFromSelection(ctx context.Context, selectedText, question string) (string, error) {
	user := fmt.Sprintf("Selected text:\n%s\n\nQuestion: %s", selectedText, question)
	return g.complete(ctx, selectionSystemPrompt, user)
}

func (g *Generator) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var respBody chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no choices")
	}

	return strings.TrimSpace(respBody.Choices[0].Message.Content), nil
}

var _ domain.AnswerGenerator = (*Generator)(nil)
