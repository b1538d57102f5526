// Package chunker splits extracted text into bounded, overlapping chunks.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// DefaultMaxChunkSize is the default number of characters per chunk.
const DefaultMaxChunkSize = domain.DefaultChunkSize

// DefaultOverlapSentences is the default number of sentences repeated between chunks.
const DefaultOverlapSentences = domain.DefaultChunkOverlap

// Processor packs sentences greedily into chunks.
// It holds no state between calls and is safe for concurrent use.
type Processor struct {
	maxChunkSize     int
	overlapSentences int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxChunkSize sets the chunk size in characters.
func WithMaxChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxChunkSize = size
		}
	}
}

// WithOverlapSentences sets how many trailing sentences the next chunk repeats.
func WithOverlapSentences(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlapSentences = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChunkSize:     DefaultMaxChunkSize,
		overlapSentences: DefaultOverlapSentences,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits text into chunks indexed from 0.
//
// Sentences are packed until the next one would push the chunk past the
// size limit. The next chunk starts max(1, n-overlap) sentences later, so
// it repeats the tail of the previous one. A sentence longer than the limit
// is cut into fixed-width pieces that carry no overlap. Blank input yields
// one chunk holding the input unchanged.
func (p *Processor) Chunk(text string) []domain.TextChunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return []domain.TextChunk{{Text: text, Index: 0}}
	}

	var (
		out     []domain.TextChunk
		current []string
		size    int
	)

	emit := func(s string) {
		out = append(out, domain.TextChunk{Text: s, Index: len(out)})
	}

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)

		if n > p.maxChunkSize {
			if len(current) > 0 {
				emit(strings.Join(current, " "))
				current, size = nil, 0
			}
			for _, piece := range hardSplit(sentence, p.maxChunkSize) {
				emit(piece)
			}
			continue
		}

		if len(current) > 0 && size+n > p.maxChunkSize {
			emit(strings.Join(current, " "))
			current = p.carry(current)
			size = runeTotal(current)
		}

		current = append(current, sentence)
		size += n
	}

	if len(current) > 0 {
		emit(strings.Join(current, " "))
	}

	return out
}

// carry returns the sentences repeated at the start of the next chunk.
// The cursor always advances by at least one sentence.
func (p *Processor) carry(chunk []string) []string {
	advance := len(chunk) - p.overlapSentences
	if advance < 1 {
		advance = 1
	}
	if advance >= len(chunk) {
		return nil
	}
	return append([]string(nil), chunk[advance:]...)
}

// SplitSentences splits text after '.', '!' or '?' when followed by whitespace.
// Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// hardSplit cuts s into pieces of at most width runes.
func hardSplit(s string, width int) []string {
	runes := []rune(s)
	pieces := make([]string, 0, len(runes)/width+1)
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

func runeTotal(ss []string) int {
	total := 0
	for _, s := range ss {
		total += utf8.RuneCountInString(s)
	}
	return total
}
