// Package tokenizer counts tokens with a BPE encoding for context budgeting.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Estimator implements the interface.
var _ driven.TokenEstimator = (*Estimator)(nil)

// DefaultEncoding is the encoding used by current OpenAI chat and embedding models.
const DefaultEncoding = "cl100k_base"

// Estimator counts tokens exactly for one encoding.
type Estimator struct {
	encoding *tiktoken.Tiktoken
}

// New loads the named encoding. The BPE ranks are fetched and cached on
// first use, so this can fail without network access.
func New(encoding string) (*Estimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", encoding, err)
	}
	return &Estimator{encoding: enc}, nil
}

// Estimate returns the number of tokens in text.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}
