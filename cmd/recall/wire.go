package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall-cli/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/recall-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/core/services"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/normalisers"
)

// tokenEncoding is the tiktoken encoding used to budget answer context.
const tokenEncoding = "cl100k_base"

// wire builds every service rooted at opts.DataDir. The settings and library
// services are always available; the rest need a working embedding provider.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store: %s", store.Path())

	out := &cli.Services{
		Settings: settingsService,
		Library:  services.NewLibraryService(store),
	}
	closers := []func(){func() { _ = store.Close() }}
	out.Close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	result, err := ai.Init(ctx, settings)
	if err != nil {
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			out.Close()
			return nil, err
		}
		out.ProviderErr = err
		return out, nil
	}
	closers = append(closers, result.Close)

	registry := normalisers.Default()
	walker := filesystem.NewWalker(registry.Supports)
	indexer := services.NewIndexer(
		store,
		result.EmbeddingService,
		registry,
		filesystem.OS{},
		filesystem.Classifier{},
		embedding.LanguageDetector{},
		settingsService,
	)

	search := services.NewSearchService(store, result.EmbeddingService, domain.DefaultExclusionFilter())
	searchOpts := domain.SearchOptions{Limit: settings.Search.Limit, MinScore: settings.Search.MinScore}

	out.Sync = services.NewSyncer(indexer, walker, filesystem.NewWatcher(walker, filesystem.DefaultSettleDelay))
	out.Search = search
	out.Ask = services.NewOrchestrator(
		search,
		services.NewContextAssembler(store, estimator(), settings.Agent.ContextTokens, settings.Agent.DocumentTokens),
		result.LLMService,
		prompts(opts.DataDir),
		*settings,
	)
	out.NewLiveSearch = func() driving.LiveSearchService {
		return services.NewLiveSearch(search, searchOpts, services.DefaultDebounce)
	}
	return out, nil
}

// estimator returns the tiktoken estimator, or nil to use the heuristic.
func estimator() driven.TokenEstimator {
	e, err := tokenizer.New(tokenEncoding)
	if err != nil {
		logger.Warn("token estimator unavailable, using heuristic: %v", err)
		return nil
	}
	return e
}

// prompts returns the prompt store, or nil to compose answers heuristically.
func prompts(dataDir string) driven.PromptStore {
	p, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		logger.Warn("prompt store unavailable: %v", err)
		return nil
	}
	return p
}
