// Package rag ties retrieval, context assembly, prompting and generation
// into the end-to-end answering pipeline.
package rag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aqua777/mediquery/schema"
)

// ContextSentinel is returned when retrieval produced no documents, so the
// prompt template always receives non-empty context.
const ContextSentinel = "No relevant information found."

// Default context budgets: the passage text is cut to ContentBudget
// characters before the citation prefix is attached, and the whole
// context never exceeds MaxContextLength.
const (
	DefaultContentBudget    = 300
	DefaultMaxContextLength = 500
)

var (
	// Runs of non-ASCII bytes become a single space.
	nonASCIIRegex = regexp.MustCompile(`[^\x00-\x7F]+`)
	// Control characters are dropped, keeping tab, newline and carriage return.
	controlRegex = regexp.MustCompile(`[\x00-\x08\x0B-\x0C\x0E-\x1F\x7F]`)
	// Whitespace runs collapse to one space.
	whitespaceRegex = regexp.MustCompile(`\s+`)
	// Three or more newlines collapse to two.
	newlineRunRegex = regexp.MustCompile(`\n{3,}`)
)

// SanitizeText removes characters that break LLM processing: non-ASCII
// runs, stray control characters and excessive whitespace.
func SanitizeText(text string) string {
	text = nonASCIIRegex.ReplaceAllString(text, " ")
	text = controlRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = newlineRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Assembler builds the bounded prompt context from retrieved documents.
type Assembler struct {
	// ContentBudget is the character budget for the passage text.
	ContentBudget int
	// MaxContextLength is the absolute cap on the assembled context,
	// citation prefix included.
	MaxContextLength int
}

// NewAssembler creates an Assembler with the default budgets.
func NewAssembler() *Assembler {
	return &Assembler{
		ContentBudget:    DefaultContentBudget,
		MaxContextLength: DefaultMaxContextLength,
	}
}

// Assemble sanitizes and truncates the first retrieved document into a
// cited context string. An empty document list yields ContextSentinel,
// never an empty string.
func (a *Assembler) Assemble(docs []schema.RetrievedDocument) string {
	if len(docs) == 0 {
		return ContextSentinel
	}

	// Only the first document is used, keeping the prompt small for a
	// resource-constrained inference endpoint.
	doc := docs[0]

	content := SanitizeText(doc.Text)
	if len(content) > a.ContentBudget {
		content = content[:a.ContentBudget]
	}

	assembled := fmt.Sprintf("%s\n%s", Citation(doc.Metadata), content)
	if len(assembled) > a.MaxContextLength {
		assembled = assembled[:a.MaxContextLength]
	}
	return assembled
}

// Citation renders the citation line for a document, e.g.
// "[ibuprofen.pdf, p.2]". Unknown sources and pages render as "unknown"
// and "?".
func Citation(meta schema.Metadata) string {
	source := meta.Source
	if source == "" {
		source = "unknown"
	}
	page := "?"
	if meta.Page > 0 {
		page = fmt.Sprintf("%d", meta.Page)
	}
	return fmt.Sprintf("[%s, p.%s]", source, page)
}
