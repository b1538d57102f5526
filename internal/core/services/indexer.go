package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/postprocessors/chunker"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// SettingsReader supplies the settings read at the start of each run.
type SettingsReader interface {
	Get() (*domain.Settings, error)
}

// Indexer turns files into stored chunk records, skipping files whose
// size and modification time match what is stored.
type Indexer struct {
	store      driven.DocumentStore
	embedder   driven.EmbeddingService
	extractors driven.ExtractorRegistry
	files      driven.FileSystem
	classifier driven.FileClassifier
	languages  driven.LanguageDetector
	settings   SettingsReader

	// run serialises indexing runs; a buffered channel so waiting honours ctx.
	run chan struct{}

	mu     sync.RWMutex
	status domain.IndexStatus

	now func() time.Time
}

// NewIndexer creates a new indexer. languages may be nil, in which case
// chunks are tagged "und".
func NewIndexer(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	extractors driven.ExtractorRegistry,
	files driven.FileSystem,
	classifier driven.FileClassifier,
	languages driven.LanguageDetector,
	settings SettingsReader,
) *Indexer {
	return &Indexer{
		store:      store,
		embedder:   embedder,
		extractors: extractors,
		files:      files,
		classifier: classifier,
		languages:  languages,
		settings:   settings,
		run:        make(chan struct{}, 1),
		now:        time.Now,
	}
}

// runState is the configuration frozen at the start of a run.
type runState struct {
	index   domain.IndexSettings
	chunker *chunker.Processor
}

// fileOutcome is the result of processing one file.
type fileOutcome struct {
	state  domain.FileState
	chunks int
	err    *domain.FileError
	halt   bool
}

// IndexFiles indexes paths in order, then removes stored files that no
// longer exist on disk. Per-file failures are collected in the report.
// An unavailable embedding provider aborts the run with an error;
// cancellation returns the partial report with Cancelled set.
func (x *Indexer) IndexFiles(
	ctx context.Context, paths []string, opts driving.IndexOptions,
) (*domain.IndexReport, error) {
	if err := x.acquire(ctx); err != nil {
		return &domain.IndexReport{Cancelled: true}, nil
	}
	defer x.release()

	rs, err := x.begin()
	if err != nil {
		return nil, err
	}
	defer x.setStatus(domain.IndexStatus{})

	logger.Section("Indexing")
	defer logger.Timed("index run")()

	report := &domain.IndexReport{}
	total := len(paths)

	for i, path := range paths {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		x.setStatus(domain.IndexStatus{Running: true, CurrentFile: path, Processed: i, Total: total})

		out, err := x.indexOne(ctx, rs, path)
		if err != nil {
			if ctx.Err() != nil {
				report.Cancelled = true
				break
			}
			return report, err
		}
		record(report, out)

		if opts.Progress != nil {
			opts.Progress(path, out.state, i+1, total)
		}
		if out.halt {
			report.Halted = true
			logger.Warn("Store size limit reached, stopping after %d files", i+1)
			break
		}
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
	}

	if !report.Cancelled && !opts.SkipOrphanSweep {
		cleaned, err := x.cleanOrphans(ctx)
		if err != nil && ctx.Err() == nil {
			return report, err
		}
		report.Cleaned = cleaned
		if opts.Progress != nil {
			for _, path := range cleaned {
				opts.Progress(path, domain.FileOrphaned, total, total)
			}
		}
	}

	logger.Info("Indexed %d, reindexed %d, unchanged %d, skipped %d, cleaned %d, errors %d",
		report.Indexed, report.Reindexed, report.Unchanged, report.Skipped, len(report.Cleaned), len(report.Errors))
	return report, nil
}

// IndexFile indexes a single file. Recoverable failures are returned as
// errors wrapping the matching domain sentinel.
func (x *Indexer) IndexFile(ctx context.Context, path string) (domain.FileState, error) {
	if err := x.acquire(ctx); err != nil {
		return domain.FileFailed, err
	}
	defer x.release()

	rs, err := x.begin()
	if err != nil {
		return domain.FileFailed, err
	}
	defer x.setStatus(domain.IndexStatus{})
	x.setStatus(domain.IndexStatus{Running: true, CurrentFile: path, Total: 1})

	out, err := x.indexOne(ctx, rs, path)
	if err != nil {
		return domain.FileFailed, err
	}
	if out.err != nil {
		return out.state, fmt.Errorf("%s: %w", out.err.Path, kindError(out.err))
	}
	return out.state, nil
}

// CleanOrphans removes stored files that no longer exist on disk.
func (x *Indexer) CleanOrphans(ctx context.Context) ([]string, error) {
	if err := x.acquire(ctx); err != nil {
		return nil, err
	}
	defer x.release()
	return x.cleanOrphans(ctx)
}

// RemoveFile deletes the stored chunks of path.
func (x *Indexer) RemoveFile(ctx context.Context, path string) error {
	if err := x.acquire(ctx); err != nil {
		return err
	}
	defer x.release()
	return x.store.DeleteByPath(ctx, path)
}

// Clear deletes every stored chunk. It refuses while a run is active.
func (x *Indexer) Clear(ctx context.Context) error {
	select {
	case x.run <- struct{}{}:
	default:
		return domain.ErrIndexInProgress
	}
	defer x.release()
	return x.store.Clear(ctx)
}

// Status returns the progress of the active run.
func (x *Indexer) Status() domain.IndexStatus {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.status
}

func (x *Indexer) acquire(ctx context.Context) error {
	select {
	case x.run <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (x *Indexer) release() {
	<-x.run
}

func (x *Indexer) setStatus(s domain.IndexStatus) {
	x.mu.Lock()
	x.status = s
	x.mu.Unlock()
}

func (x *Indexer) begin() (*runState, error) {
	settings, err := x.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &runState{
		index: settings.Index,
		chunker: chunker.New(
			chunker.WithMaxChunkSize(settings.Index.ChunkSize),
			chunker.WithOverlapSentences(settings.Index.ChunkOverlap),
		),
	}, nil
}

// indexOne runs the per-file state machine. A non-nil error aborts the run.
//
//nolint:gocyclo // Sequential checks mirror the per-file state machine.
func (x *Indexer) indexOne(ctx context.Context, rs *runState, path string) (fileOutcome, error) {
	name := domain.DisplayName(path)
	fail := func(kind domain.ErrorKind, state domain.FileState, format string, args ...any) fileOutcome {
		msg := fmt.Sprintf(format, args...)
		logger.Warn("%s: %s", path, msg)
		return fileOutcome{state: state, err: &domain.FileError{Path: path, Name: name, Message: msg, Kind: kind}}
	}

	info, err := x.files.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(domain.ErrorKindFilesystem, domain.FileFailed, "file not found"), nil
		}
		return fail(domain.ErrorKindFilesystem, domain.FileFailed, "stat: %v", err), nil
	}
	if info.IsDir {
		return fileOutcome{state: domain.FileSkipped}, nil
	}

	if rs.index.SkipCodeFiles && x.classifier.IsCode(path) {
		logger.Debug("Skipping code file %s", path)
		return fileOutcome{state: domain.FileSkipped}, nil
	}
	if rs.index.SkipImages && x.classifier.IsImage(path) {
		logger.Debug("Skipping image %s", path)
		return fileOutcome{state: domain.FileSkipped}, nil
	}
	if limit := rs.index.MaxFileSizeBytes; limit > 0 && info.Size > limit {
		return fail(domain.ErrorKindTooLarge, domain.FileSkipped,
			"%s: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, info.Size, limit), nil
	}

	meta, err := x.store.GetFileMetadata(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		meta = nil
	case err != nil:
		return fail(domain.ErrorKindStorage, domain.FileFailed, "read metadata: %v", err), nil
	case meta.Unchanged(info.ModifiedAt, info.Size):
		logger.Debug("Unchanged %s", path)
		return fileOutcome{state: domain.FileUnchanged}, nil
	}
	changed := meta != nil

	// A changed file that cannot be re-indexed loses its stale chunks.
	dropStale := func(out fileOutcome) fileOutcome {
		if changed {
			if err := x.store.DeleteByPath(ctx, path); err != nil {
				logger.Warn("%s: remove stale chunks: %v", path, err)
			}
		}
		return out
	}

	if limit := rs.index.MaxDatabaseSizeBytes; limit > 0 {
		stats, err := x.store.Stats(ctx)
		if err != nil {
			return fail(domain.ErrorKindStorage, domain.FileFailed, "read stats: %v", err), nil
		}
		if stats.DatabaseBytes >= limit {
			out := fail(domain.ErrorKindStoreFull, domain.FileSkipped,
				"%s: store is %d bytes, limit %d", domain.ErrStoreFull, stats.DatabaseBytes, limit)
			out.halt = true
			return out, nil
		}
	}

	text, err := x.extractors.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return fileOutcome{}, ctx.Err()
		}
		return dropStale(fail(domain.ErrorKindExtraction, domain.FileFailed, "%v", err)), nil
	}
	if strings.TrimSpace(text) == "" {
		return dropStale(fail(domain.ErrorKindExtraction, domain.FileSkipped, "no text content")), nil
	}

	chunks := rs.chunker.Chunk(text)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return fileOutcome{}, ctx.Err()
		}
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return fileOutcome{}, err
		}
		return dropStale(fail(domain.ErrorKindEmbedding, domain.FileFailed, "%v", err)), nil
	}
	if len(vectors) != len(chunks) {
		return dropStale(fail(domain.ErrorKindEmbedding, domain.FileFailed,
			"expected %d embeddings, got %d", len(chunks), len(vectors))), nil
	}

	created := x.now()
	records := make([]domain.ChunkRecord, len(chunks))
	languages := make(map[string]int)
	for i, c := range chunks {
		lang := x.detect(c.Text)
		languages[lang]++
		records[i] = domain.ChunkRecord{
			ID:         uuid.New().String(),
			FilePath:   path,
			FileName:   name,
			Content:    c.Text,
			ChunkIndex: c.Index,
			Language:   lang,
			Embedding:  vectors[i],
			CreatedAt:  created,
			ModifiedAt: info.ModifiedAt,
			FileSize:   info.Size,
		}
	}

	file := domain.FileInput{
		Path:       path,
		Name:       name,
		Language:   dominantLanguage(languages),
		ModifiedAt: info.ModifiedAt,
		Size:       info.Size,
	}
	if err := x.store.UpsertFile(ctx, file, records); err != nil {
		if errors.Is(err, domain.ErrStoreFull) {
			out := fail(domain.ErrorKindStoreFull, domain.FileSkipped, "%v", err)
			out.halt = true
			return out, nil
		}
		return fail(domain.ErrorKindStorage, domain.FileFailed, "write chunks: %v", err), nil
	}

	state := domain.FileIndexed
	if changed {
		state = domain.FileReindexed
	}
	logger.Debug("%s %s (%d chunks)", state, path, len(records))
	return fileOutcome{state: state, chunks: len(records)}, nil
}

func (x *Indexer) detect(text string) string {
	if x.languages == nil {
		return domain.UndeterminedLanguage
	}
	return x.languages.Detect(text)
}

func (x *Indexer) cleanOrphans(ctx context.Context) ([]string, error) {
	files, err := x.store.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var cleaned []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return cleaned, err
		}
		if x.files.Exists(f.Path) {
			continue
		}
		if err := x.store.DeleteByPath(ctx, f.Path); err != nil {
			logger.Warn("%s: remove orphan: %v", f.Path, err)
			continue
		}
		logger.Debug("Removed orphan %s", f.Path)
		cleaned = append(cleaned, f.Path)
	}
	return cleaned, nil
}

func record(report *domain.IndexReport, out fileOutcome) {
	switch out.state {
	case domain.FileIndexed:
		report.Indexed++
	case domain.FileReindexed:
		report.Reindexed++
	case domain.FileUnchanged:
		report.Unchanged++
	case domain.FileSkipped:
		report.Skipped++
	}
	report.Chunks += out.chunks
	if out.err != nil {
		report.Errors = append(report.Errors, *out.err)
	}
}

// dominantLanguage returns the most frequent tag other than "und".
func dominantLanguage(counts map[string]int) string {
	best, bestCount := domain.UndeterminedLanguage, 0
	for lang, n := range counts {
		if lang == domain.UndeterminedLanguage {
			continue
		}
		if n > bestCount || (n == bestCount && lang < best) {
			best, bestCount = lang, n
		}
	}
	return best
}

func kindError(fe *domain.FileError) error {
	var sentinel error
	switch fe.Kind {
	case domain.ErrorKindTooLarge:
		sentinel = domain.ErrFileTooLarge
	case domain.ErrorKindStoreFull:
		sentinel = domain.ErrStoreFull
	case domain.ErrorKindExtraction:
		sentinel = domain.ErrExtractionFailed
	case domain.ErrorKindFilesystem:
		if strings.Contains(fe.Message, "not found") {
			sentinel = fs.ErrNotExist
		}
	}
	if sentinel == nil {
		return errors.New(fe.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, fe.Message)
}
