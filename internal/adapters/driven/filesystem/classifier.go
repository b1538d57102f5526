package filesystem

import (
	"path/filepath"

	"github.com/go-enry/go-enry/v2"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.FileClassifier = Classifier{}

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"webp": true, "tif": true, "tiff": true, "ico": true, "heic": true,
	"svg": true,
}

// Classifier uses linguist data to recognise source code.
type Classifier struct{}

// IsCode reports whether the file name identifies a programming language.
// Only the base name is inspected; parent directories never make a file code.
// Markup, data and prose formats are not code.
func (Classifier) IsCode(path string) bool {
	name := filepath.Base(path)
	lang, _ := enry.GetLanguageByFilename(name)
	if lang == "" {
		lang, _ = enry.GetLanguageByExtension(name)
	}
	if lang == "" {
		return false
	}
	return enry.GetLanguageType(lang) == enry.Programming
}

// IsImage reports whether path has an image extension.
func (Classifier) IsImage(path string) bool {
	return imageExtensions[domain.Extension(path)]
}
