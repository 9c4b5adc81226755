package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// Gemini provider defaults.
const (
	// DefaultGeminiEndpoint is the Gemini embedding API base URL.
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is the embedding model identifier.
	DefaultGeminiModel = "gemini-embedding-001"

	geminiPoolSize = 4
)

// GeminiConfig configures the Gemini embedding provider.
type GeminiConfig struct {
	// APIKey authenticates requests. Empty falls back to the
	// GEMINI_API_KEY and GOOGLE_GENERATIVE_AI_API_KEY env vars.
	APIKey string

	// Model is the embedding model (default: gemini-embedding-001).
	Model string

	// Endpoint is the API base URL (default: the public Gemini endpoint).
	Endpoint string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// GeminiProvider generates embeddings via direct HTTPS calls to the Gemini
// embedContent endpoint.
type GeminiProvider struct {
	client    *http.Client
	transport *http.Transport
	config    GeminiConfig

	mu     sync.RWMutex
	closed bool
	dims   int
}

// Verify interface implementation at compile time
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini embedding provider.
// It never fails on a missing API key: availability is reported by
// Available, so a keyless process degrades instead of crashing.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        geminiPoolSize,
		MaxIdleConnsPerHost: geminiPoolSize,
		IdleConnTimeout:     30 * time.Second,
	}

	return &GeminiProvider{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
	}
}

// embedContentRequest is the Gemini embedContent request body.
type embedContentRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

// embedContentResponse is the Gemini embedContent response body.
type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	g.mu.RLock()
	closed := g.closed
	g.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("provider is closed")
	}
	if g.config.APIKey == "" {
		return nil, fmt.Errorf("no API key configured")
	}

	var body embedContentRequest
	body.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s",
		g.config.Endpoint, g.config.Model, g.config.APIKey)

	reqCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, string(msg))
	}

	var result embedContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding API returned an empty vector")
	}

	g.mu.Lock()
	if g.dims == 0 {
		g.dims = len(result.Embedding.Values)
	}
	g.mu.Unlock()

	return result.Embedding.Values, nil
}

// Available reports whether the provider holds credentials and is open.
// No network call is made; a bad key still fails softly at Embed time.
func (g *GeminiProvider) Available(ctx context.Context) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.closed && g.config.APIKey != ""
}

// Dimensions returns the embedding dimension observed so far (0 if no call
// has succeeded yet).
func (g *GeminiProvider) Dimensions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dims
}

// ModelName returns the model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.config.Model
}

// Close releases idle connections.
func (g *GeminiProvider) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.transport.CloseIdleConnections()
	return nil
}
