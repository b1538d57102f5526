// Package openai provides an embedding service adapter using the OpenAI API.
// Any server speaking the same protocol (Azure OpenAI, LM Studio, vLLM) works
// through BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1/"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the number of inputs sent per request.
	MaxBatchSize = 100
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1/).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// RateLimit bounds request throughput (default: embedding.CloudRateLimit).
	RateLimit embedding.RateLimitConfig
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client  openai.Client
	limiter *embedding.RateLimiter
	model   string

	// sendDimensions is set when Dimensions was chosen explicitly.
	sendDimensions bool

	// mu guards dimensions, which is learned from the first response
	// when the model's size is unknown.
	mu         sync.Mutex
	dimensions int
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit = embedding.CloudRateLimit
	}

	s := &EmbeddingService{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(2),
		),
		limiter:        embedding.NewRateLimiter(cfg.RateLimit),
		model:          cfg.Model,
		dimensions:     cfg.Dimensions,
		sendDimensions: cfg.Dimensions > 0,
	}
	if s.dimensions == 0 {
		s.dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	return s, nil
}

// Embed generates a vector and language tag for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	if err := embedding.CheckInput(text); err != nil {
		return domain.Embedding{}, err
	}

	vectors, err := s.request(ctx, []string{text})
	if err != nil {
		return domain.Embedding{}, err
	}

	return domain.Embedding{
		Vector:   vectors[0],
		Language: embedding.DetectLanguage(text),
	}, nil
}

// EmbedBatch embeds texts in requests of at most MaxBatchSize, preserving order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := embedding.CheckBatch(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.request(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(s.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if s.sendDimensions {
		params.Dimensions = openai.Int(int64(s.Dimensions()))
	}

	resp, err := s.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, s.wrap(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = embedding.ToFloat32(d.Embedding)
	}
	if len(vectors) > 0 {
		s.mu.Lock()
		if s.dimensions == 0 {
			s.dimensions = len(vectors[0])
		}
		s.mu.Unlock()
	}
	return vectors, nil
}

func (s *EmbeddingService) wrap(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			s.limiter.Backoff(0)
		}
		return embedding.Unavailable("openai", apiErr.StatusCode, err)
	}
	return embedding.Unavailable("openai", 0, err)
}

// Dimensions returns the embedding vector size, or 0 before the first
// response for models with an unknown size.
func (s *EmbeddingService) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks the model exists without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
