package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// DefaultSettleDelay is how long the watcher waits for a burst of events
// to go quiet before delivering a batch.
const DefaultSettleDelay = 500 * time.Millisecond

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// Watcher reports file changes under a set of directories.
type Watcher struct {
	walker *Walker
	settle time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher that prunes directories the same way walker does.
func NewWatcher(walker *Walker, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Watcher{walker: walker, settle: settle}
}

// Watch starts watching roots recursively. Batches of changes are sent on
// the returned channel, which closes when ctx is done or Close is called.
func (w *Watcher) Watch(ctx context.Context, roots []string) (<-chan []domain.FileChange, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, root := range roots {
		if err := w.addTree(fw, root); err != nil {
			fw.Close()
			return nil, err
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	out := make(chan []domain.FileChange)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- []domain.FileChange) {
	defer close(out)
	defer fw.Close()

	pending := make(map[string]domain.ChangeKind)
	timer := time.NewTimer(w.settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			change, ok := w.handleEvent(fw, event)
			if !ok {
				continue
			}
			pending[change.Path] = change.Kind
			timer.Reset(w.settle)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			batch := make([]domain.FileChange, 0, len(pending))
			for path, kind := range pending {
				batch = append(batch, domain.FileChange{Path: path, Kind: kind})
			}
			clear(pending)
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleEvent maps an fsnotify event to a change. New directories are added
// to the watch list and produce no change themselves.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) (domain.FileChange, bool) {
	if IsHidden(filepath.Base(event.Name)) {
		return domain.FileChange{}, false
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return domain.FileChange{Path: event.Name, Kind: domain.ChangeRemoved}, true
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.FileChange{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.FileChange{Path: event.Name, Kind: domain.ChangeRemoved}, true
		}
		return domain.FileChange{}, false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(fw, event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
		}
		return domain.FileChange{}, false
	}
	if w.walker != nil && w.walker.Accept != nil && !w.walker.Accept(event.Name) {
		return domain.FileChange{}, false
	}
	return domain.FileChange{Path: event.Name, Kind: domain.ChangeModified}, true
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (IsHidden(d.Name()) || (w.walker != nil && w.walker.skipDirs[d.Name()])) {
			return fs.SkipDir
		}
		return fw.Add(path)
	})
}

// Close stops the active watch.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
