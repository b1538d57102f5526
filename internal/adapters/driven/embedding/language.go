package embedding

import (
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// minDetectRunes is the shortest text worth running detection on.
const minDetectRunes = 20

// DetectLanguage returns the ISO 639-1 tag of text, or "und" when
// the text is too short or detection is unreliable.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectRunes {
		return domain.UndeterminedLanguage
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return domain.UndeterminedLanguage
	}

	if tag := info.Lang.Iso6391(); tag != "" {
		return tag
	}
	return domain.UndeterminedLanguage
}

// Ensure LanguageDetector implements the interface.
var _ driven.LanguageDetector = LanguageDetector{}

// LanguageDetector tags chunk text for the indexer.
type LanguageDetector struct{}

// Detect returns the ISO 639-1 tag of text, or "und".
func (LanguageDetector) Detect(text string) string {
	return DetectLanguage(text)
}
