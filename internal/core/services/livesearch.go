package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// DefaultDebounce is the quiet period before an interactive query runs.
const DefaultDebounce = 300 * time.Millisecond

// Ensure LiveSearch implements the interface.
var _ driving.LiveSearchService = (*LiveSearch)(nil)

// LiveSearch runs search-as-you-type queries. Each submission supersedes
// the previous one: a pending query is dropped and a running one is
// cancelled, so Results only ever carries the latest query's outcome.
type LiveSearch struct {
	search driving.SearchService
	opts   domain.SearchOptions
	delay  time.Duration

	results chan domain.LiveResult

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewLiveSearch creates a live search. A non-positive delay uses DefaultDebounce.
func NewLiveSearch(search driving.SearchService, opts domain.SearchOptions, delay time.Duration) *LiveSearch {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &LiveSearch{
		search:  search,
		opts:    opts,
		delay:   delay,
		results: make(chan domain.LiveResult, 1),
	}
}

// Results delivers outcomes. An undelivered outcome is replaced by a newer one.
// The channel is closed by Close.
func (l *LiveSearch) Results() <-chan domain.LiveResult {
	return l.results
}

// Submit schedules query after the debounce delay.
func (l *LiveSearch) Submit(query string) {
	l.submit(query, l.delay)
}

// SubmitNow runs query immediately.
func (l *LiveSearch) SubmitNow(query string) {
	l.submit(query, 0)
}

// Close cancels pending work and closes the results channel.
func (l *LiveSearch) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.supersede()
	close(l.results)
}

func (l *LiveSearch) submit(query string, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.supersede()

	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	if delay == 0 {
		go l.run(ctx, gen, query)
		return
	}
	l.timer = time.AfterFunc(delay, func() { l.run(ctx, gen, query) })
}

// supersede stops the pending timer and cancels the running query.
// Callers hold mu.
func (l *LiveSearch) supersede() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *LiveSearch) run(ctx context.Context, gen uint64, query string) {
	if ctx.Err() != nil {
		return
	}

	result := domain.LiveResult{Query: query}
	if strings.TrimSpace(query) == "" {
		result.Response = &domain.SearchResponse{}
	} else {
		result.Response, result.Err = l.search.Search(ctx, query, l.opts)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen || ctx.Err() != nil {
		logger.Debug("Dropping stale live result for %q", query)
		return
	}
	select {
	case <-l.results:
	default:
	}
	l.results <- result
}
