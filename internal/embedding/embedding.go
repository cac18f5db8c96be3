package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"techdoc-rag/internal/config"
	"techdoc-rag/internal/models"
)

// Client talks to an OpenAI-compatible embeddings endpoint. The raw HTTP call
// is kept here instead of behind an SDK so provider failures can surface the
// exact status and body per the error contract.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	maxChars int
	client   *http.Client

	mu  sync.Mutex
	dim int
}

func NewClient(cfg *config.EmbeddingConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.Key,
		model:    cfg.Model,
		maxChars: cfg.MaxChars,
		client:   &http.Client{Timeout: cfg.Timeout()},
		dim:      cfg.Dimension,
	}
}

// Dimension returns the vector length, pinned on the first successful call
// (or pre-configured). Zero means not yet known.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dim
}

// Embed converts text to a vector. Input is truncated to the configured
// character budget before sending. A non-2xx response comes back as a
// *models.ProviderError; a zero-length vector as models.ErrEmptyEmbedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.maxChars > 0 && len(text) > c.maxChars {
		log.Debug().Int("len", len(text)).Int("max", c.maxChars).Msg("Truncating embedding input")
		text = text[:c.maxChars]
	}

	payload := struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}{Input: text, Model: c.model}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, models.ErrEmptyEmbedding
	}

	vec := out.Data[0].Embedding
	c.mu.Lock()
	if c.dim == 0 {
		c.dim = len(vec)
	}
	c.mu.Unlock()
	return vec, nil
}
