package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API, or any compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexSettings is read at the start of every indexing run.
type IndexSettings struct {
	// SkipCodeFiles excludes source code files from indexing.
	SkipCodeFiles bool

	// SkipImages excludes image files from indexing.
	SkipImages bool

	// MaxFileSizeBytes skips files larger than this. Zero disables the limit.
	MaxFileSizeBytes int64

	// MaxDatabaseSizeBytes halts a run once the store reaches this size. Zero disables the limit.
	MaxDatabaseSizeBytes int64

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of sentences repeated between chunks.
	ChunkOverlap int
}

// SearchSettings holds retrieval defaults.
type SearchSettings struct {
	Limit int

	// MinScore is the relevance floor. Zero selects DefaultMinScore, so
	// there is no way to disable the floor entirely.
	MinScore float64
}

// AgentSettings configures the question-answering loop.
type AgentSettings struct {
	// MaxIterations bounds the search iterations per user turn.
	MaxIterations int

	// MaxHistoryTurns bounds the conversation history.
	MaxHistoryTurns int

	// ContextTokens is the total token budget for assembled context.
	ContextTokens int

	// DocumentTokens is the per-document token cap.
	DocumentTokens int

	// UseLLM enables LLM synthesis when an LLM is configured.
	UseLLM bool
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables LLM synthesis.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Settings holds all application settings.
type Settings struct {
	Index     IndexSettings
	Search    SearchSettings
	Agent     AgentSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// Defaults for settings that are not present in the config file.
const (
	DefaultChunkSize            = 512
	DefaultChunkOverlap         = 1
	DefaultMaxFileSizeBytes     = 50 << 20
	DefaultMaxDatabaseSizeBytes = 2 << 30
	DefaultMaxIterations        = 3
	DefaultMaxHistoryTurns      = 5
	DefaultContextTokens        = 2000
	DefaultDocumentTokens       = 400
)

// DefaultSettings returns settings with sensible defaults.
// Embeddings default to a local Ollama instance; LLM synthesis is off until configured.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			SkipCodeFiles:        false,
			SkipImages:           true,
			MaxFileSizeBytes:     DefaultMaxFileSizeBytes,
			MaxDatabaseSizeBytes: DefaultMaxDatabaseSizeBytes,
			ChunkSize:            DefaultChunkSize,
			ChunkOverlap:         DefaultChunkOverlap,
		},
		Search: SearchSettings{
			Limit:    DefaultSearchLimit,
			MinScore: DefaultMinScore,
		},
		Agent: AgentSettings{
			MaxIterations:   DefaultMaxIterations,
			MaxHistoryTurns: DefaultMaxHistoryTurns,
			ContextTokens:   DefaultContextTokens,
			DocumentTokens:  DefaultDocumentTokens,
			UseLLM:          true,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
	}
}

// Validate checks numeric settings are in range.
func (s Settings) Validate() error {
	switch {
	case s.Index.ChunkSize <= 0:
		return fmt.Errorf("%w: index.chunk_size must be positive", ErrInvalidInput)
	case s.Index.ChunkOverlap < 0:
		return fmt.Errorf("%w: index.chunk_overlap must not be negative", ErrInvalidInput)
	case s.Index.MaxFileSizeBytes < 0 || s.Index.MaxDatabaseSizeBytes < 0:
		return fmt.Errorf("%w: size limits must not be negative", ErrInvalidInput)
	case s.Search.MinScore < 0 || s.Search.MinScore >= 1:
		return fmt.Errorf("%w: search.min_score must be in [0, 1)", ErrInvalidInput)
	case s.Agent.MaxIterations <= 0:
		return fmt.Errorf("%w: agent.max_iterations must be positive", ErrInvalidInput)
	case s.Agent.MaxHistoryTurns < 0:
		return fmt.Errorf("%w: agent.max_history_turns must not be negative", ErrInvalidInput)
	case s.Agent.ContextTokens <= 0 || s.Agent.DocumentTokens <= 0:
		return fmt.Errorf("%w: token budgets must be positive", ErrInvalidInput)
	}
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support chat completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
