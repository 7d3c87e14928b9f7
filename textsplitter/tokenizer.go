package textsplitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// EncodingCL100kBase is the BPE encoding used for token accounting.
const EncodingCL100kBase = "cl100k_base"

// TokenSizer measures text in BPE tokens. Ingestion uses it to report
// token statistics per chunk; it can also drive the splitter directly
// via WithSizer for token-budgeted chunking.
type TokenSizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenSizer creates a token sizer; an empty encoding name uses
// cl100k_base.
func NewTokenSizer(encodingName string) (*TokenSizer, error) {
	if encodingName == "" {
		encodingName = EncodingCL100kBase
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("get encoding %s: %w", encodingName, err)
	}
	return &TokenSizer{encoding: enc}, nil
}

// Size returns the number of tokens in text.
func (t *TokenSizer) Size(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

var _ Sizer = (*TokenSizer)(nil)
