// Package ollama provides an Ollama-backed embedding client for engine/embed.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// EmbedClient implements embed.Client using Ollama's HTTP API. Requests are
// paced with a token-bucket limiter so a large ingest cannot saturate the
// model server.
type EmbedClient struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// ClientOpts configures the Ollama client.
type ClientOpts struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond caps the embed request rate; <= 0 disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// NewEmbedClient creates an Ollama embedding client.
func NewEmbedClient(opts ClientOpts) *EmbedClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &EmbedClient{
		baseURL: opts.BaseURL,
		model:   opts.Model,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// Load verifies the model is pullable and warm by embedding a probe string.
// Ollama loads the model into memory on first use, so one probe readies it
// for the life of the process.
func (c *EmbedClient) Load(ctx context.Context) error {
	if _, err := c.Embed(ctx, "ready"); err != nil {
		return fmt.Errorf("ollama: warm model %s: %w", c.model, err)
	}
	return nil
}

// Embed converts one text into an embedding vector.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, _ := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
