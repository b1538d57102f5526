package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvOpenAIAPIKey supplies the OpenAI key when none is configured.
//
//nolint:gosec // G101: This is an environment variable name, not a credential.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySkipCodeFiles   = "index.skip_code_files"
	keySkipImages      = "index.skip_images"
	keyMaxFileSize     = "index.max_file_size_bytes"
	keyMaxDatabaseSize = "index.max_database_size_bytes"
	keyChunkSize       = "index.chunk_size"
	keyChunkOverlap    = "index.chunk_overlap"
	keySearchLimit     = "search.limit"
	keySearchMinScore  = "search.min_score"
	keyMaxIterations   = "agent.max_iterations"
	keyMaxHistoryTurns = "agent.max_history_turns"
	keyContextTokens   = "agent.context_tokens"
	keyDocumentTokens  = "agent.document_tokens"
	keyUseLLM          = "agent.use_llm"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
)

const (
	defaultOllamaURL    = "http://localhost:11434"
	redactedPlaceholder = "********"
)

type settingKind int

const (
	kindBool settingKind = iota
	kindInt
	kindInt64
	kindFloat
	kindString
	kindProvider
)

// setting binds a config key to a field of domain.Settings.
type setting struct {
	kind settingKind
	get  func(*domain.Settings) any
	set  func(*domain.Settings, any)
}

func boolSetting(field func(*domain.Settings) *bool) setting {
	return setting{
		kind: kindBool,
		get:  func(s *domain.Settings) any { return *field(s) },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(bool) },
	}
}

func intSetting(field func(*domain.Settings) *int) setting {
	return setting{
		kind: kindInt,
		get:  func(s *domain.Settings) any { return *field(s) },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(int) },
	}
}

func int64Setting(field func(*domain.Settings) *int64) setting {
	return setting{
		kind: kindInt64,
		get:  func(s *domain.Settings) any { return *field(s) },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(int64) },
	}
}

func floatSetting(field func(*domain.Settings) *float64) setting {
	return setting{
		kind: kindFloat,
		get:  func(s *domain.Settings) any { return *field(s) },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(float64) },
	}
}

func stringSetting(field func(*domain.Settings) *string) setting {
	return setting{
		kind: kindString,
		get:  func(s *domain.Settings) any { return *field(s) },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(string) },
	}
}

func providerSetting(field func(*domain.Settings) *domain.AIProvider) setting {
	return setting{
		kind: kindProvider,
		get:  func(s *domain.Settings) any { return field(s).String() },
		set:  func(s *domain.Settings, v any) { *field(s) = v.(domain.AIProvider) },
	}
}

var settingsTable = map[string]setting{
	keySkipCodeFiles:   boolSetting(func(s *domain.Settings) *bool { return &s.Index.SkipCodeFiles }),
	keySkipImages:      boolSetting(func(s *domain.Settings) *bool { return &s.Index.SkipImages }),
	keyMaxFileSize:     int64Setting(func(s *domain.Settings) *int64 { return &s.Index.MaxFileSizeBytes }),
	keyMaxDatabaseSize: int64Setting(func(s *domain.Settings) *int64 { return &s.Index.MaxDatabaseSizeBytes }),
	keyChunkSize:       intSetting(func(s *domain.Settings) *int { return &s.Index.ChunkSize }),
	keyChunkOverlap:    intSetting(func(s *domain.Settings) *int { return &s.Index.ChunkOverlap }),
	keySearchLimit:     intSetting(func(s *domain.Settings) *int { return &s.Search.Limit }),
	keySearchMinScore:  floatSetting(func(s *domain.Settings) *float64 { return &s.Search.MinScore }),
	keyMaxIterations:   intSetting(func(s *domain.Settings) *int { return &s.Agent.MaxIterations }),
	keyMaxHistoryTurns: intSetting(func(s *domain.Settings) *int { return &s.Agent.MaxHistoryTurns }),
	keyContextTokens:   intSetting(func(s *domain.Settings) *int { return &s.Agent.ContextTokens }),
	keyDocumentTokens:  intSetting(func(s *domain.Settings) *int { return &s.Agent.DocumentTokens }),
	keyUseLLM:          boolSetting(func(s *domain.Settings) *bool { return &s.Agent.UseLLM }),
	keyEmbedProvider:   providerSetting(func(s *domain.Settings) *domain.AIProvider { return &s.Embedding.Provider }),
	keyEmbedModel:      stringSetting(func(s *domain.Settings) *string { return &s.Embedding.Model }),
	keyEmbedBaseURL:    stringSetting(func(s *domain.Settings) *string { return &s.Embedding.BaseURL }),
	keyEmbedAPIKey:     stringSetting(func(s *domain.Settings) *string { return &s.Embedding.APIKey }),
	keyLLMProvider:     providerSetting(func(s *domain.Settings) *domain.AIProvider { return &s.LLM.Provider }),
	keyLLMModel:        stringSetting(func(s *domain.Settings) *string { return &s.LLM.Model }),
	keyLLMBaseURL:      stringSetting(func(s *domain.Settings) *string { return &s.LLM.BaseURL }),
	keyLLMAPIKey:       stringSetting(func(s *domain.Settings) *string { return &s.LLM.APIKey }),
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or malformed keys
// keep their defaults; an OpenAI provider without a key falls back to
// the OPENAI_API_KEY environment variable.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	for key, field := range settingsTable {
		if _, exists := s.configStore.Get(key); !exists {
			continue
		}
		if v, ok := s.read(key, field.kind); ok {
			field.set(&settings, v)
		}
	}

	if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.getenv(EnvOpenAIAPIKey)
	}
	if settings.LLM.Provider == domain.AIProviderOpenAI && settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.getenv(EnvOpenAIAPIKey)
	}

	return &settings, nil
}

// read returns the stored value for key converted to kind.
func (s *SettingsService) read(key string, kind settingKind) (any, bool) {
	switch kind {
	case kindBool:
		return s.configStore.GetBool(key), true
	case kindInt:
		return s.configStore.GetInt(key), true
	case kindInt64:
		return s.configStore.GetInt64(key), true
	case kindFloat:
		return s.configStore.GetFloat(key), true
	case kindProvider:
		provider := domain.AIProvider(s.configStore.GetString(key))
		if provider != "" && !provider.IsValid() {
			return nil, false
		}
		return provider, true
	default:
		return s.configStore.GetString(key), true
	}
}

// Save persists application settings. API keys are written only when
// set and not supplied by the environment.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	env := s.getenv(EnvOpenAIAPIKey)

	for _, key := range s.Keys() {
		value := settingsTable[key].get(settings)
		if key == keyEmbedAPIKey || key == keyLLMAPIKey {
			if k, _ := value.(string); k == "" || k == env {
				continue
			}
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// SetValue parses value for key, validates the resulting settings, and saves the key.
func (s *SettingsService) SetValue(key, value string) error {
	field, ok := settingsTable[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(field.kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	field.set(settings, parsed)
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, field.get(settings)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		return strconv.Atoi(value)
	case kindInt64:
		return strconv.ParseInt(value, 10, 64)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindProvider:
		provider := domain.AIProvider(strings.ToLower(value))
		if provider != "" && !provider.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return provider, nil
	default:
		return value, nil
	}
}

// Keys lists every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for k := range settingsTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns every key with its current value rendered for display.
// API keys are masked.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(settingsTable))
	for key, field := range settingsTable {
		v := fmt.Sprint(field.get(settings))
		if (key == keyEmbedAPIKey || key == keyLLMAPIKey) && v != "" {
			v = redactedPlaceholder
		}
		values[key] = v
	}
	return values, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if apiKey == "" && provider == domain.AIProviderOpenAI {
		apiKey = s.getenv(EnvOpenAIAPIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if apiKey == "" && provider == domain.AIProviderOpenAI {
		apiKey = s.getenv(EnvOpenAIAPIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// baseURLFor keeps a configured URL for local providers and clears it
// for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}
