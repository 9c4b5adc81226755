package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_NoKeyIsUnavailable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "")

	p := NewGeminiProvider(GeminiConfig{})
	defer func() { _ = p.Close() }()

	assert.False(t, p.Available(context.Background()))

	// Embed must fail cleanly, not attempt a network call that crashes.
	_, err := p.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestGeminiProvider_KeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	p := NewGeminiProvider(GeminiConfig{})
	defer func() { _ = p.Close() }()

	assert.True(t, p.Available(context.Background()))
}

func TestGeminiProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-embedding-001:embedContent")
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req embedContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Content.Parts, 1)
		assert.Equal(t, "dentist appointment", req.Content.Parts[0].Text)

		var resp embedContentResponse
		resp.Embedding.Values = []float32{0.1, 0.2, 0.3}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "secret", Endpoint: server.URL})
	defer func() { _ = p.Close() }()

	vec, err := p.Embed(context.Background(), "dentist appointment")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, p.Dimensions())
}

func TestGeminiProvider_APIErrorSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "secret", Endpoint: server.URL})
	defer func() { _ = p.Close() }()

	_, err := p.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiProvider_EmptyVectorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":{"values":[]}}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "secret", Endpoint: server.URL})
	defer func() { _ = p.Close() }()

	_, err := p.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestGeminiProvider_ClosedIsUnavailable(t *testing.T) {
	p := NewGeminiProvider(GeminiConfig{APIKey: "secret"})
	require.NoError(t, p.Close())

	assert.False(t, p.Available(context.Background()))
	_, err := p.Embed(context.Background(), "text")
	assert.Error(t, err)
}
