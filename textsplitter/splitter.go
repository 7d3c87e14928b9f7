package textsplitter

import (
	"strings"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap are measured by the
	// configured Sizer, characters by default.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	DefaultSeparator     = " "
	DefaultParagraphSep  = "\n\n"
	DefaultChunkingRegex = `[^,.;?!]+[,.;?!]?|[,.;?!]`
)

// CharSizer measures text by byte length. Labeling text is sanitized to
// ASCII before splitting, so bytes and characters coincide.
type CharSizer struct{}

// Size returns the byte length of text.
func (CharSizer) Size(text string) int { return len(text) }

// textSplit holds intermediate split information.
type textSplit struct {
	text       string
	isSentence bool
	size       int
}

// SentenceSplitter splits text into overlapping chunks with a preference
// for complete sentences: paragraphs first, then sentences, then
// sub-sentence fallbacks for runs that still exceed the budget.
type SentenceSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Sizer        Sizer
	Strategy     SentenceStrategy

	splitFns            []func(string) []string
	subSentenceSplitFns []func(string) []string
}

// SplitterOption configures a SentenceSplitter.
type SplitterOption func(*SentenceSplitter)

// WithChunkSize sets the chunk budget.
func WithChunkSize(size int) SplitterOption {
	return func(s *SentenceSplitter) {
		s.ChunkSize = size
	}
}

// WithChunkOverlap sets the overlap carried between consecutive chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *SentenceSplitter) {
		s.ChunkOverlap = overlap
	}
}

// WithSizer sets a custom size measure, e.g. a token counter.
func WithSizer(sizer Sizer) SplitterOption {
	return func(s *SentenceSplitter) {
		s.Sizer = sizer
	}
}

// WithStrategy sets a custom sentence strategy.
func WithStrategy(strategy SentenceStrategy) SplitterOption {
	return func(s *SentenceSplitter) {
		s.Strategy = strategy
	}
}

// NewSentenceSplitter creates a splitter with the default budgets. The
// punkt sentence strategy is used when available, with a regex fallback.
func NewSentenceSplitter(opts ...SplitterOption) *SentenceSplitter {
	s := &SentenceSplitter{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Sizer:        CharSizer{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.Strategy == nil {
		if strategy, err := NewNeurosnapStrategy(); err == nil {
			s.Strategy = strategy
		} else {
			s.Strategy = NewRegexStrategy(DefaultChunkingRegex)
		}
	}

	s.splitFns = []func(string) []string{
		splitBySep(DefaultParagraphSep),
		s.Strategy.Split,
	}
	s.subSentenceSplitFns = []func(string) []string{
		NewRegexStrategy(DefaultChunkingRegex).Split,
		splitBySep(DefaultSeparator),
		splitByChar(),
	}

	return s
}

// SplitText splits text into chunks of at most ChunkSize, consecutive
// chunks sharing up to ChunkOverlap of trailing content. Empty and
// whitespace-only chunks are dropped.
func (s *SentenceSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	splits := s.split(text, s.ChunkSize)
	return s.merge(splits)
}

// split recursively breaks text until every piece fits the budget.
func (s *SentenceSplitter) split(text string, chunkSize int) []textSplit {
	size := s.Sizer.Size(text)
	if size <= chunkSize {
		return []textSplit{{text: text, isSentence: true, size: size}}
	}

	pieces, isSentence := s.splitsByFns(text)
	var result []textSplit
	for _, piece := range pieces {
		size := s.Sizer.Size(piece)
		if size <= chunkSize {
			result = append(result, textSplit{text: piece, isSentence: isSentence, size: size})
		} else {
			result = append(result, s.split(piece, chunkSize)...)
		}
	}
	return result
}

// splitsByFns applies the primary split functions until one produces
// more than one piece, then falls through to the sub-sentence fallbacks.
func (s *SentenceSplitter) splitsByFns(text string) ([]string, bool) {
	for _, fn := range s.splitFns {
		pieces := fn(text)
		if len(pieces) > 1 {
			return pieces, true
		}
	}

	var pieces []string
	for _, fn := range s.subSentenceSplitFns {
		pieces = fn(text)
		if len(pieces) > 1 {
			break
		}
	}
	return pieces, false
}

// merge packs splits into chunks up to the budget, seeding each new
// chunk with trailing splits of the previous one for overlap.
func (s *SentenceSplitter) merge(splits []textSplit) []string {
	var chunks []string
	var current []textSplit
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		// Split functions preserve separators, so plain concatenation
		// reconstructs the original text.
		var sb strings.Builder
		for _, item := range current {
			sb.WriteString(item.text)
		}
		chunk := strings.TrimSpace(sb.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Carry trailing splits into the next chunk as overlap.
		var overlap []textSplit
		overlapSize := 0
		for i := len(current) - 1; i >= 0; i-- {
			if overlapSize+current[i].size > s.ChunkOverlap {
				break
			}
			overlapSize += current[i].size
			overlap = append([]textSplit{current[i]}, overlap...)
		}
		current = overlap
		currentSize = overlapSize
	}

	for _, split := range splits {
		if currentSize+split.size > s.ChunkSize && len(current) > 0 {
			flush()
			// A large split may not fit alongside the overlap; drop the
			// overlap rather than exceed the budget.
			if currentSize+split.size > s.ChunkSize {
				current = nil
				currentSize = 0
			}
		}
		current = append(current, split)
		currentSize += split.size
	}
	flush()

	return chunks
}

var _ TextSplitter = (*SentenceSplitter)(nil)
