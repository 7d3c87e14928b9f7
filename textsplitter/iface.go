// Package textsplitter chunks labeling text into overlapping,
// sentence-aware pieces sized for embedding and retrieval.
package textsplitter

// TextSplitter is the interface for splitting text.
type TextSplitter interface {
	SplitText(text string) []string
}

// Sizer measures text against the chunk budget.
type Sizer interface {
	Size(text string) int
}

// SentenceStrategy is the interface for primary sentence splitting.
type SentenceStrategy interface {
	Split(text string) []string
}
