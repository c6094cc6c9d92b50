package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// Embedder turns text into a fixed-dimension vector for similarity search.
// Both precedent store backends share one embedder so queries and stored
// clauses live in the same vector space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

const (
	defaultEmbeddingEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	defaultEmbeddingModel    = "models/gemini-embedding-001"

	// EmbeddingDims is the output dimensionality requested from the backend
	// and expected by the pgvector column.
	EmbeddingDims = 768

	embedMaxRetries     = 3
	embedInitialBackoff = time.Second
)

// ErrEmbeddingFailed is returned when the embedding backend cannot produce a
// vector within the retry budget.
var ErrEmbeddingFailed = errors.New("failed to generate embedding")

// GeminiEmbedder calls the Gemini embedContent endpoint.
type GeminiEmbedder struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewGeminiEmbedder constructs an embedder. The API key is required.
func NewGeminiEmbedder(apiKey string) (*GeminiEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key not set")
	}
	return &GeminiEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     strings.TrimSpace(apiKey),
		endpoint:   defaultEmbeddingEndpoint,
	}, nil
}

type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// EmbedQuery embeds text for use as a retrieval query.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument embeds text for indexing into the precedent store.
func (e *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (e *GeminiEmbedder) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: defaultEmbeddingModel,
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: EmbeddingDims,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	backoff := embedInitialBackoff
	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp embeddingResponse
			err := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if err != nil {
				lastErr = err
				continue
			}
			return normalize(apiResp.Embedding.Values), nil
		}
		resp.Body.Close()

		// Bad requests and auth failures will not improve on retry.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("embedding API error: %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("embedding API error: %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, lastErr)
}

// normalize scales the vector to unit length and narrows it to float32.
func normalize(values []float64) []float32 {
	var norm float64
	for _, v := range values {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(values))
	for i, v := range values {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}
	return out
}
