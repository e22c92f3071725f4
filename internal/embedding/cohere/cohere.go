// Package cohere implements embedding.Provider against the Cohere
// embed API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sellbotai/sellbot/internal/embedding"
)

const defaultBaseURL = "https://api.cohere.com/v1"

var modelDimensions = map[string]int{
	"embed-english-v3.0":       1024,
	"embed-multilingual-v3.0":  1024,
	"embed-english-light-v3.0": 384,
}

// Client implements embedding.Provider for the Cohere API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	inputType  string
	http       *http.Client
}

// New creates a Cohere embedding provider. The API key and a known model
// are required.
func New(cfg embedding.Config) (embedding.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere embedding: api key is required")
	}
	dims, ok := modelDimensions[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("cohere embedding: unknown model %q — supported: %v", cfg.Model, knownModels())
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		dimensions: dims,
		inputType:  "search_document",
		http:       &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) ModelName() string { return c.model }
func (c *Client) Dimensions() int   { return c.dimensions }

// ForQueries returns a copy of the client that embeds with input_type
// search_query. Cohere v3 models encode documents and queries differently.
func (c *Client) ForQueries() *Client {
	q := *c
	q.inputType = "search_query"
	return &q
}

// EmbedQuery implements embedding.QueryEmbedder.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.ForQueries().Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body := map[string]any{
		"model":      c.model,
		"texts":      texts,
		"input_type": c.inputType,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere embed: %s: %s", resp.Status, respBody)
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere embed: got %d vectors for %d inputs", len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

func knownModels() []string {
	var out []string
	for m := range modelDimensions {
		out = append(out, m)
	}
	return out
}
