package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// Ensure Syncer implements the interface.
var _ driving.SyncService = (*Syncer)(nil)

// ErrNoWatcher is returned by Watch when the syncer has no file watcher.
var ErrNoWatcher = errors.New("file watching not available")

// Syncer keeps the index in step with directory roots.
// It runs full scans on demand and applies incremental watch batches.
type Syncer struct {
	indexer driving.IndexService
	walker  driven.FileWalker
	watcher driven.FileWatcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewSyncer creates a syncer. watcher may be nil, in which case Watch fails.
func NewSyncer(indexer driving.IndexService, walker driven.FileWalker, watcher driven.FileWatcher) *Syncer {
	return &Syncer{
		indexer: indexer,
		walker:  walker,
		watcher: watcher,
	}
}

// Sync walks every root and indexes what it finds, then sweeps orphans.
func (s *Syncer) Sync(
	ctx context.Context, roots []string, progress driving.IndexProgress,
) (*domain.IndexReport, error) {
	paths, err := s.walker.Walk(ctx, roots)
	if err != nil {
		return nil, fmt.Errorf("walk roots: %w", err)
	}
	return s.indexer.IndexFiles(ctx, paths, driving.IndexOptions{Progress: progress})
}

// Apply indexes modified paths and removes deleted ones.
// Removal failures are collected in the report.
func (s *Syncer) Apply(ctx context.Context, changes []domain.FileChange) (*domain.IndexReport, error) {
	var modified, removed []string
	for _, c := range changes {
		switch c.Kind {
		case domain.ChangeRemoved:
			removed = append(removed, c.Path)
		default:
			modified = append(modified, c.Path)
		}
	}

	report := &domain.IndexReport{}
	if len(modified) > 0 {
		r, err := s.indexer.IndexFiles(ctx, modified, driving.IndexOptions{SkipOrphanSweep: true})
		if err != nil {
			return nil, err
		}
		report = r
	}

	for _, path := range removed {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if err := s.indexer.RemoveFile(ctx, path); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report.Cancelled = true
				break
			}
			report.Errors = append(report.Errors, domain.FileError{
				Path:    path,
				Name:    domain.DisplayName(path),
				Message: err.Error(),
				Kind:    domain.ErrorKindStorage,
			})
			continue
		}
		report.Cleaned = append(report.Cleaned, path)
	}
	return report, nil
}

// Watch applies watch batches until ctx is done or Stop is called.
// A positive rescan interval also triggers periodic full scans.
// Each completed pass is passed to onReport when set.
func (s *Syncer) Watch(
	ctx context.Context,
	roots []string,
	rescan time.Duration,
	onReport func(*domain.IndexReport),
) error {
	if s.watcher == nil {
		return ErrNoWatcher
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := s.watcher.Watch(ctx, roots)
	if err != nil {
		return fmt.Errorf("watch roots: %w", err)
	}
	defer s.watcher.Close()

	var tick <-chan time.Time
	if rescan > 0 {
		ticker := time.NewTicker(rescan)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case batch, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			report, err := s.Apply(ctx, batch)
			if err != nil {
				return err
			}
			s.deliver(report, onReport)
		case <-tick:
			report, err := s.Sync(ctx, roots, nil)
			if err != nil {
				if errors.Is(err, domain.ErrProviderUnavailable) {
					return err
				}
				logger.Warn("rescan failed: %v", err)
				continue
			}
			s.deliver(report, onReport)
		}
	}
}

// Stop ends a running Watch loop and waits for it to return.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Syncer) deliver(report *domain.IndexReport, onReport func(*domain.IndexReport)) {
	if report == nil {
		return
	}
	logger.Debug("sync pass: %d written, %d removed, %d errors",
		report.Succeeded(), len(report.Cleaned), len(report.Errors))
	if onReport != nil {
		onReport(report)
	}
}
