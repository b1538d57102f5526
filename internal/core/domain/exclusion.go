package domain

import (
	"path/filepath"
	"strings"
)

// ExclusionFilter decides at read time which stored chunks are searchable.
// Filtering never deletes anything; the store stays a superset of what is searchable.
type ExclusionFilter struct {
	// Extensions are lowercased extensions without the dot.
	Extensions []string

	// PathSegments are directory names that exclude any path containing them.
	PathSegments []string

	// FileNames are base names (without extension, case-insensitive) to exclude.
	FileNames []string
}

// DefaultExcludedSegments lists VCS, build and dependency directories.
var DefaultExcludedSegments = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", "bower_components",
	"build", "dist", "target", "out", "bin", "obj",
	"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	".idea", ".vscode", ".gradle", ".next", ".cache",
}

// DefaultExcludedFileNames lists common project documentation files.
var DefaultExcludedFileNames = []string{
	"readme", "license", "licence", "changelog", "contributing",
	"code_of_conduct", "authors", "notice", "security",
}

// DefaultExclusionFilter returns the filter applied to searches.
func DefaultExclusionFilter() ExclusionFilter {
	return ExclusionFilter{
		PathSegments: append([]string(nil), DefaultExcludedSegments...),
		FileNames:    append([]string(nil), DefaultExcludedFileNames...),
	}
}

// Excludes reports whether path is filtered out.
func (f ExclusionFilter) Excludes(path string) bool {
	if len(f.Extensions) > 0 {
		ext := Extension(path)
		for _, e := range f.Extensions {
			if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
				return true
			}
		}
	}

	if len(f.FileNames) > 0 {
		base := strings.ToLower(filepath.Base(path))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, n := range f.FileNames {
			if stem == n || base == n {
				return true
			}
		}
	}

	if len(f.PathSegments) > 0 {
		dir := filepath.ToSlash(filepath.Dir(path))
		for _, seg := range strings.Split(dir, "/") {
			for _, s := range f.PathSegments {
				if seg == s {
					return true
				}
			}
		}
	}

	return false
}

// IsZero reports whether the filter excludes nothing.
func (f ExclusionFilter) IsZero() bool {
	return len(f.Extensions) == 0 && len(f.PathSegments) == 0 && len(f.FileNames) == 0
}
