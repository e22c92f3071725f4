// Package ollama implements embedding.Provider against a local Ollama
// server's /api/embed endpoint.
package ollama

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

const defaultBaseURL = "http://localhost:11434"

// Client implements embedding.Provider for Ollama.
type Client struct {
	model      string
	baseURL    string
	dimensions int
	http       *http.Client
}

// New creates an Ollama embedding provider. Output dimensionality is not
// known statically for arbitrary local models, so construction embeds a
// probe string once; an unreachable server or missing model fails here
// rather than on the first upload.
func New(cfg embedding.Config) (embedding.Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama embedding: model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		model:   cfg.Model,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	probe, err := c.embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: probe %q at %s: %w", cfg.Model, baseURL, err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		return nil, fmt.Errorf("ollama embedding: model %q returned an empty vector", cfg.Model)
	}
	c.dimensions = len(probe[0])
	return c, nil
}

func (c *Client) ModelName() string { return c.model }
func (c *Client) Dimensions() int   { return c.dimensions }

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts)
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := map[string]any{
		"model": c.model,
		"input": texts,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("ollama embed: %s: %s", resp.Status, respBody)
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}
