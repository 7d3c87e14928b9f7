package textsplitter

import (
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// NeurosnapStrategy splits on sentence boundaries using the punkt
// tokenizer with its English training data.
type NeurosnapStrategy struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewNeurosnapStrategy creates a sentence strategy for English text.
func NewNeurosnapStrategy() (*NeurosnapStrategy, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &NeurosnapStrategy{tokenizer: tokenizer}, nil
}

// Split tokenizes text into sentences.
func (s *NeurosnapStrategy) Split(text string) []string {
	sents := s.tokenizer.Tokenize(text)
	result := make([]string, len(sents))
	for i, sent := range sents {
		result[i] = sent.Text
	}
	return result
}

// RegexStrategy splits on a sentence-ish regex. It is the fallback when
// punkt training data cannot be loaded.
type RegexStrategy struct {
	re *regexp.Regexp
}

// NewRegexStrategy creates a regex strategy; an empty pattern uses
// DefaultChunkingRegex.
func NewRegexStrategy(pattern string) *RegexStrategy {
	if pattern == "" {
		pattern = DefaultChunkingRegex
	}
	return &RegexStrategy{re: regexp.MustCompile(pattern)}
}

// Split returns all regex matches in order.
func (s *RegexStrategy) Split(text string) []string {
	return s.re.FindAllString(text, -1)
}

// splitKeepSeparator splits text by separator, keeping the separator at
// the start of each piece after the first, so rejoining is lossless.
func splitKeepSeparator(text, separator string) []string {
	if separator == "" {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	parts := strings.Split(text, separator)
	var result []string
	for i, part := range parts {
		if i > 0 {
			part = separator + part
		}
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// splitBySep returns a split function over a fixed separator.
func splitBySep(sep string) func(string) []string {
	return func(text string) []string {
		return splitKeepSeparator(text, sep)
	}
}

// splitByChar splits text into single characters, the last-resort
// fallback for unbroken runs longer than the chunk budget.
func splitByChar() func(string) []string {
	return func(text string) []string {
		return strings.Split(text, "")
	}
}

var (
	_ SentenceStrategy = (*NeurosnapStrategy)(nil)
	_ SentenceStrategy = (*RegexStrategy)(nil)
)
