package normalisers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/normalisers/docx"
	"github.com/custodia-labs/recall-cli/internal/normalisers/html"
	"github.com/custodia-labs/recall-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/recall-cli/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects an extractor by file extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string][]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with every built-in extractor.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New(), docx.New())
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range e.SupportedExtensions() {
		list := append(r.byExt[ext], e)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() > list[j].Priority() })
		r.byExt[ext] = list
	}
}

// Supports reports whether any extractor handles path.
func (r *Registry) Supports(path string) bool {
	return r.lookup(path) != nil
}

// Extract runs the best extractor for path.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	e := r.lookup(path)
	if e == nil {
		return "", fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, domain.Extension(path))
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%s: %w: %v", e.Name(), domain.ErrExtractionFailed, err)
	}
	return text, nil
}

func (r *Registry) lookup(path string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byExt[domain.Extension(path)]
	if len(list) == 0 {
		return nil
	}
	return list[0]
}
