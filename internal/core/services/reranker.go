package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Re-ranking multipliers applied on top of cosine similarity.
const (
	keywordCoverageBoost = 0.3 // up to x1.3 at full coverage
	exactMatchBoost      = 1.2
	fileNameKeywordBoost = 1.15
	shortChunkPenalty    = 0.8
	passageLengthBoost   = 1.1
	technicalBoost       = 1.15

	shortChunkRunes  = 100
	passageMinRunes  = 200
	passageMaxRunes  = 1000
	minKeywordLength = 3
)

// stopwords are common function words dropped from keyword extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"him": true, "his": true, "how": true, "its": true, "may": true, "new": true,
	"now": true, "old": true, "see": true, "two": true, "way": true, "who": true,
	"did": true, "does": true, "get": true, "got": true, "let": true, "put": true,
	"say": true, "she": true, "too": true, "use": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "with": true, "would": true,
	"about": true, "after": true, "again": true, "also": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "could": true,
	"each": true, "from": true, "further": true, "here": true, "into": true,
	"just": true, "more": true, "most": true, "much": true, "must": true,
	"only": true, "other": true, "over": true, "same": true, "should": true,
	"some": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "under": true, "until": true,
	"very": true, "were": true, "why": true, "will": true, "your": true,
	"yours": true, "tell": true, "explain": true, "please": true, "know": true,
	"show": true, "find": true, "give": true, "want": true, "need": true,
	"like": true, "there's": true, "thing": true, "things": true,
}

// ExtractKeywords lowercases text, splits on non-alphanumeric runes, and
// drops stopwords and tokens of two characters or fewer. Order of first
// appearance is kept and duplicates are removed.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, token := range tokenize(text) {
		if utf8.RuneCountInString(token) < minKeywordLength || stopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Reranker adjusts similarity scores with lexical and structural signals.
// Prepare a query once with Query and score each chunk against it.
type Reranker struct{}

// RerankQuery is the per-query state shared across chunks.
type RerankQuery struct {
	lower     string
	keywords  []string
	technical bool
}

// technicalTerms mark a query as asking about code.
var technicalTerms = []string{"code", "function", "implement", "method", "class", "api", "snippet"}

// codeMarkers indicate a chunk contains source code.
var codeMarkers = []string{"{", "def ", "func ", "=>", "();", "import ", "class "}

// Query prepares query for repeated scoring.
func (Reranker) Query(query string) RerankQuery {
	lower := strings.ToLower(strings.TrimSpace(query))
	q := RerankQuery{lower: lower, keywords: ExtractKeywords(lower)}
	for _, term := range technicalTerms {
		if hasWordWithPrefix(lower, term) {
			q.technical = true
			break
		}
	}
	return q
}

// Adjust multiplies score by every signal that applies to the chunk.
// The result is not capped; callers cap after all boosts.
func (Reranker) Adjust(q RerankQuery, score float64, content, fileName string) float64 {
	lowerContent := strings.ToLower(content)

	if len(q.keywords) > 0 {
		words := make(map[string]bool)
		for _, w := range tokenize(lowerContent) {
			words[w] = true
		}
		matched := 0
		for _, k := range q.keywords {
			if words[k] {
				matched++
			}
		}
		score *= 1 + keywordCoverageBoost*float64(matched)/float64(len(q.keywords))

		lowerName := strings.ToLower(fileName)
		for _, k := range q.keywords {
			if strings.Contains(lowerName, k) {
				score *= fileNameKeywordBoost
				break
			}
		}
	}

	if q.lower != "" && strings.Contains(lowerContent, q.lower) {
		score *= exactMatchBoost
	}

	switch n := utf8.RuneCountInString(content); {
	case n < shortChunkRunes:
		score *= shortChunkPenalty
	case n >= passageMinRunes && n <= passageMaxRunes:
		score *= passageLengthBoost
	}

	if q.technical {
		for _, marker := range codeMarkers {
			if strings.Contains(content, marker) {
				score *= technicalBoost
				break
			}
		}
	}

	return score
}

// hasWordWithPrefix reports whether any word of text starts with prefix,
// so "implement" matches "implementation".
func hasWordWithPrefix(text, prefix string) bool {
	for _, t := range tokenize(text) {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}
