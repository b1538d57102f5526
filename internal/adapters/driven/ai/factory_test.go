package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	// Should not panic
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
		wantDims int
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "mxbai-embed-large",
			},
			wantDims: 1024,
		},
		{
			name: "ollama unknown model uses default dimensions",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "custom-embedder",
			},
			wantDims: 768,
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-large",
			},
			wantDims: 3072,
		},
		{
			name: "openai without key is unconfigured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	svc, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"})
	require.NoError(t, err)
	_, streams := svc.(driven.StreamingLLMService)
	assert.True(t, streams)

	svc, err = CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", svc.ModelName())

	svc, err = CreateLLMService(&domain.LLMSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestInit(t *testing.T) {
	t.Run("no embedding provider fails", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.Embedding = domain.EmbeddingSettings{}

		_, err := Init(context.Background(), &settings)
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("unreachable llm falls back with warning", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.LLM = domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			Model:    "llama3.2",
			BaseURL:  "http://127.0.0.1:1",
		}

		result, err := Init(context.Background(), &settings)
		require.NoError(t, err)
		defer result.Close()
		assert.NotNil(t, result.EmbeddingService)
		assert.Nil(t, result.LLMService)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("reachable llm is kept", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		settings := domain.DefaultSettings()
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: srv.URL}

		result, err := Init(context.Background(), &settings)
		require.NoError(t, err)
		defer result.Close()
		assert.NotNil(t, result.LLMService)
		assert.Empty(t, result.Warnings)
	})

	t.Run("llm disabled by settings", func(t *testing.T) {
		settings := domain.DefaultSettings()
		settings.Agent.UseLLM = false
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}

		result, err := Init(context.Background(), &settings)
		require.NoError(t, err)
		assert.Nil(t, result.LLMService)
	})
}
