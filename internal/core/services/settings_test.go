package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

type mockAIConfigValidator struct {
	embedErr error
	llmErr   error
	embedded *domain.EmbeddingSettings
}

func (m *mockAIConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedded = cfg
	return m.embedErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.getenv = func(k string) string { return env[k] }
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, &defaults, settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	require.NoError(t, store.Set("index.skip_code_files", true))
	require.NoError(t, store.Set("index.max_file_size_bytes", int64(1024)))
	require.NoError(t, store.Set("index.chunk_size", int64(256)))
	require.NoError(t, store.Set("search.min_score", 0.25))
	require.NoError(t, store.Set("agent.use_llm", false))
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("embedding.model", "text-embedding-3-large"))
	require.NoError(t, store.Set("embedding.api_key", "sk-stored"))

	settings, err := service.Get()
	require.NoError(t, err)

	assert.True(t, settings.Index.SkipCodeFiles)
	assert.Equal(t, int64(1024), settings.Index.MaxFileSizeBytes)
	assert.Equal(t, 256, settings.Index.ChunkSize)
	assert.InDelta(t, 0.25, settings.Search.MinScore, 1e-9)
	assert.False(t, settings.Agent.UseLLM)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-stored", settings.Embedding.APIKey)
}

func TestSettingsService_Get_InvalidProviderKeepsDefault(t *testing.T) {
	service, store := newTestSettingsService(nil)
	require.NoError(t, store.Set("embedding.provider", "invalid_provider"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{EnvOpenAIAPIKey: "sk-env"})
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.api_key", "sk-llm"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "sk-llm", settings.LLM.APIKey)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service, store := newTestSettingsService(nil)

	settings := domain.DefaultSettings()
	settings.Index.ChunkOverlap = 2
	settings.Search.Limit = 25
	settings.Agent.MaxHistoryTurns = 7
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: "http://gpu:11434"}
	require.NoError(t, service.Save(&settings))

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, &settings, loaded)

	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SaveRejectsInvalid(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings := domain.DefaultSettings()
	settings.Index.ChunkSize = 0
	assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)
}

func TestSettingsService_SaveSkipsEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{EnvOpenAIAPIKey: "sk-env"})

	settings := domain.DefaultSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "m", APIKey: "sk-env"}
	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, s *domain.Settings)
	}{
		{"bool", "index.skip_images", "false", func(t *testing.T, s *domain.Settings) {
			assert.False(t, s.Index.SkipImages)
		}},
		{"int64", "index.max_database_size_bytes", "1048576", func(t *testing.T, s *domain.Settings) {
			assert.Equal(t, int64(1048576), s.Index.MaxDatabaseSizeBytes)
		}},
		{"int", "agent.max_iterations", "4", func(t *testing.T, s *domain.Settings) {
			assert.Equal(t, 4, s.Agent.MaxIterations)
		}},
		{"float", "search.min_score", "0.3", func(t *testing.T, s *domain.Settings) {
			assert.InDelta(t, 0.3, s.Search.MinScore, 1e-9)
		}},
		{"provider", "llm.provider", "OpenAI", func(t *testing.T, s *domain.Settings) {
			assert.Equal(t, domain.AIProviderOpenAI, s.LLM.Provider)
		}},
		{"string", "embedding.model", " mxbai-embed-large ", func(t *testing.T, s *domain.Settings) {
			assert.Equal(t, "mxbai-embed-large", s.Embedding.Model)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettingsService(nil)
			require.NoError(t, service.SetValue(tt.key, tt.value))

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_SetValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "index.unknown", "1"},
		{"not a number", "index.chunk_size", "big"},
		{"not a bool", "index.skip_images", "maybe"},
		{"out of range", "search.min_score", "1.5"},
		{"negative overlap", "index.chunk_overlap", "-1"},
		{"unknown provider", "embedding.provider", "anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestSettingsService(nil)
			assert.ErrorIs(t, service.SetValue(tt.key, tt.value), domain.ErrInvalidInput)
			assert.Empty(t, store.Keys())
		})
	}
}

func TestSettingsService_KeysAndValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	require.NoError(t, store.Set("llm.api_key", "sk-secret"))

	keys := service.Keys()
	assert.Len(t, keys, 21)
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "index.max_database_size_bytes")

	values, err := service.Values()
	require.NoError(t, err)
	assert.Equal(t, "512", values["index.chunk_size"])
	assert.Equal(t, "ollama", values["embedding.provider"])
	assert.Equal(t, "********", values["llm.api_key"])
	assert.Equal(t, "", values["embedding.api_key"])
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama gets default model and url", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOllama], settings.Embedding.Model)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("openai clears base url", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-1"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
		assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
		assert.Empty(t, settings.Embedding.BaseURL)
		assert.Equal(t, "sk-1", settings.Embedding.APIKey)
	})

	t.Run("openai requires a key", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	})

	t.Run("openai key from environment", func(t *testing.T) {
		service, _ := newTestSettingsService(map[string]string{EnvOpenAIAPIKey: "sk-env"})
		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	})

	t.Run("invalid provider", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		assert.Error(t, service.SetEmbeddingProvider("invalid", "", ""))
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOllama], settings.LLM.Model)
	assert.True(t, settings.LLM.IsConfigured())

	assert.Error(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, service.SetLLMProvider("invalid", "", ""))
}

func TestSettingsService_ValidateConfig(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())

	validator := &mockAIConfigValidator{embedErr: errors.New("unreachable"), llmErr: errors.New("no model")}
	service.aiValidator = validator

	assert.EqualError(t, service.ValidateEmbeddingConfig(), "unreachable")
	assert.EqualError(t, service.ValidateLLMConfig(), "no model")
	require.NotNil(t, validator.embedded)
	assert.Equal(t, domain.AIProviderOllama, validator.embedded.Provider)
}
