package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm"})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, 768, s.Dimensions())

	s = NewEmbeddingService(Config{Model: "mxbai-embed-large"})
	assert.Equal(t, 1024, s.Dimensions())
	assert.NoError(t, s.Close())
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		resp := embedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbed_ReturnsLanguage(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	})

	e, err := s.Embed(context.Background(), "The committee approved the annual budget after a long discussion.")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, e.Vector)
	assert.Equal(t, "en", e.Language)
}

func TestEmbed_BlankInput(t *testing.T) {
	called := false
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := s.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.False(t, called)
}

func TestEmbed_ModelNotPulled(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	_, err := s.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestEmbed_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := NewEmbeddingService(Config{BaseURL: url})
	_, err := s.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrProviderUnavailable)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	})

	_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, s.Ping(context.Background()))
}
