package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// Ensure HeuristicEstimator implements the interface.
var _ driven.TokenEstimator = HeuristicEstimator{}

// HeuristicEstimator approximates tokens without a tokenizer: words of up
// to four letters count as one token, longer words as one per four
// letters, and each punctuation or symbol rune as one more.
type HeuristicEstimator struct{}

// Estimate returns the approximate token count of text.
func (HeuristicEstimator) Estimate(text string) int {
	tokens := 0
	for _, word := range strings.Fields(text) {
		tokens += estimateWord(word)
	}
	return tokens
}

func estimateWord(word string) int {
	tokens, letters := 0, 0
	for _, r := range word {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			tokens++
			continue
		}
		letters++
	}
	switch {
	case letters == 0:
	case letters <= 4:
		tokens++
	default:
		tokens += (letters + 3) / 4
	}
	return tokens
}

// ContextAssembler rebuilds whole documents for the top results and packs
// them into a token budget.
type ContextAssembler struct {
	store          driven.DocumentStore
	estimator      driven.TokenEstimator
	totalTokens    int
	documentTokens int
}

// NewContextAssembler creates an assembler. A nil estimator falls back to
// HeuristicEstimator; non-positive budgets fall back to the defaults.
func NewContextAssembler(
	store driven.DocumentStore, estimator driven.TokenEstimator, totalTokens, documentTokens int,
) *ContextAssembler {
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	if totalTokens <= 0 {
		totalTokens = domain.DefaultContextTokens
	}
	if documentTokens <= 0 {
		documentTokens = domain.DefaultDocumentTokens
	}
	return &ContextAssembler{
		store:          store,
		estimator:      estimator,
		totalTokens:    totalTokens,
		documentTokens: documentTokens,
	}
}

// Assemble returns context items in score order. Assembly stops at the
// first document that would exceed the total budget.
func (a *ContextAssembler) Assemble(ctx context.Context, results []domain.SearchResult) ([]domain.ContextItem, error) {
	ordered := append([]domain.SearchResult(nil), results...)
	SortResults(ordered)

	var (
		items []domain.ContextItem
		used  int
	)
	for _, r := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc := r.Content
		chunks, err := a.store.GetFileChunks(ctx, r.FilePath)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logger.Warn("%s: load chunks: %v", r.FilePath, err)
		case len(chunks) > 0:
			doc = JoinChunks(chunks)
		}

		content := a.window(doc, r.Content)
		tokens := a.estimator.Estimate(content)
		if used+tokens > a.totalTokens {
			logger.Debug("Context budget reached after %d documents", len(items))
			break
		}
		used += tokens
		items = append(items, domain.ContextItem{
			FilePath: r.FilePath,
			FileName: r.FileName,
			Score:    r.Score,
			Content:  content,
			Tokens:   tokens,
		})
	}
	logger.Debug("Assembled %d documents, %d tokens", len(items), used)
	return items, nil
}

// window returns doc unchanged when it fits the per-document cap, and
// otherwise the run of words centred on matched.
func (a *ContextAssembler) window(doc, matched string) string {
	if a.estimator.Estimate(doc) <= a.documentTokens {
		return doc
	}

	words := strings.Fields(doc)
	center := 0
	if m := strings.TrimSpace(matched); m != "" {
		if idx := strings.Index(doc, m); idx >= 0 {
			center = len(strings.Fields(doc[:idx])) + len(strings.Fields(m))/2
		}
	}
	if center >= len(words) {
		center = len(words) - 1
	}

	lo, hi := center, center+1
	used := estimateWord(words[center])
	for grew := true; grew; {
		grew = false
		if hi < len(words) {
			if n := estimateWord(words[hi]); used+n <= a.documentTokens {
				used += n
				hi++
				grew = true
			}
		}
		if lo > 0 {
			if n := estimateWord(words[lo-1]); used+n <= a.documentTokens {
				used += n
				lo--
				grew = true
			}
		}
	}

	// Estimators other than the heuristic may count differently.
	content := strings.Join(words[lo:hi], " ")
	for hi-lo > 1 && a.estimator.Estimate(content) > a.documentTokens {
		if hi-center > center-lo {
			hi--
		} else {
			lo++
		}
		content = strings.Join(words[lo:hi], " ")
	}
	return content
}

// JoinChunks rebuilds a document from chunks ordered by index, dropping the
// sentences each chunk repeats from its predecessor.
func JoinChunks(chunks []domain.ChunkRecord) string {
	var b strings.Builder
	for _, c := range chunks {
		text := strings.TrimSpace(c.Content)
		if text == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(text)
			continue
		}
		doc := b.String()
		k := overlapLength(doc, text)
		if k == len(text) {
			continue
		}
		if k == 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text[k:])
	}
	return b.String()
}

// overlapLength returns the length of the longest prefix of next that is
// also a suffix of doc, both ending on word boundaries.
func overlapLength(doc, next string) int {
	for k := min(len(doc), len(next)); k > 0; k-- {
		if k < len(next) && next[k] != ' ' {
			continue
		}
		if k < len(doc) && doc[len(doc)-k-1] != ' ' {
			continue
		}
		if strings.HasSuffix(doc, next[:k]) {
			return k
		}
	}
	return 0
}
