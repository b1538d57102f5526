package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// IgnoreFile is read from each walked root.
const IgnoreFile = ".gitignore"

// Ensure Walker implements the interface.
var _ driven.FileWalker = (*Walker)(nil)

// Walker expands roots into the files to index.
type Walker struct {
	// Accept filters candidate files; nil accepts all.
	Accept func(path string) bool

	skipDirs map[string]bool
}

// NewWalker creates a walker that prunes the default excluded directories.
func NewWalker(accept func(path string) bool) *Walker {
	skip := make(map[string]bool, len(domain.DefaultExcludedSegments))
	for _, s := range domain.DefaultExcludedSegments {
		skip[s] = true
	}
	return &Walker{Accept: accept, skipDirs: skip}
}

// Walk returns absolute paths of accepted files under roots, sorted and
// deduplicated. Files named directly are returned when accepted even if
// hidden. Directories honour the root's .gitignore.
func (w *Walker) Walk(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] && (w.Accept == nil || w.Accept(path)) {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(abs)
			continue
		}
		if err := w.walkDir(ctx, abs, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (w *Walker) walkDir(ctx context.Context, root string, add func(string)) error {
	matcher := loadIgnore(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("walk %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if IsHidden(name) || (d.IsDir() && w.skipDirs[name]) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if matcher != nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && matcher.MatchesPath(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}

		if d.Type().IsRegular() {
			add(path)
		}
		return nil
	})
}

func loadIgnore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		logger.Warn("ignoring unreadable %s: %v", path, err)
		return nil
	}
	return matcher
}

// IsHidden reports whether a file or directory name starts with a dot.
// "." and ".." are not hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
