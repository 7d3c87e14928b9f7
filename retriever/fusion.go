package retriever

import (
	"context"
	"sync"

	"github.com/aqua777/mediquery/schema"
)

// Default k-values, tuned for a minimal context on a resource-constrained
// inference endpoint.
const (
	DefaultKSemantic = 1
	DefaultKLexical  = 1
	DefaultKFinal    = 1
)

// Engine retrieves normalized documents for a query.
type Engine interface {
	Retrieve(ctx context.Context, query string, k int) ([]schema.RetrievedDocument, error)
}

// HybridRetriever fuses semantic and lexical results by rank
// concatenation: semantic results first, then lexical, deduplicated by
// FusionKey preserving first-seen order and truncated to KFinal. Semantic
// matches therefore win ties for a duplicate passage. No score
// normalization or weighted blending is performed; fusion quality is
// bounded by this simplicity.
type HybridRetriever struct {
	Semantic Engine
	Lexical  Engine
	// KSemantic and KLexical are the per-engine candidate counts; KFinal
	// is the fused result count.
	KSemantic int
	KLexical  int
	KFinal    int
	// Concurrent issues the two engine calls in parallel. Ordering
	// semantics are identical either way; this is a latency optimization
	// only.
	Concurrent bool
}

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithKValues sets the per-engine and final candidate counts.
func WithKValues(kSemantic, kLexical, kFinal int) HybridOption {
	return func(h *HybridRetriever) {
		h.KSemantic = kSemantic
		h.KLexical = kLexical
		h.KFinal = kFinal
	}
}

// WithConcurrent toggles the parallel fan-out of the two engine calls.
func WithConcurrent(concurrent bool) HybridOption {
	return func(h *HybridRetriever) {
		h.Concurrent = concurrent
	}
}

// NewHybridRetriever creates a hybrid retriever over the two engines.
func NewHybridRetriever(semantic, lexical Engine, opts ...HybridOption) *HybridRetriever {
	h := &HybridRetriever{
		Semantic:   semantic,
		Lexical:    lexical,
		KSemantic:  DefaultKSemantic,
		KLexical:   DefaultKLexical,
		KFinal:     DefaultKFinal,
		Concurrent: true,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Retrieve runs both engines and fuses their results.
func (h *HybridRetriever) Retrieve(ctx context.Context, query string) ([]schema.RetrievedDocument, error) {
	var semanticDocs, lexicalDocs []schema.RetrievedDocument
	var semanticErr, lexicalErr error

	if h.Concurrent {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			semanticDocs, semanticErr = h.Semantic.Retrieve(ctx, query, h.KSemantic)
		}()
		go func() {
			defer wg.Done()
			lexicalDocs, lexicalErr = h.Lexical.Retrieve(ctx, query, h.KLexical)
		}()
		wg.Wait()
	} else {
		semanticDocs, semanticErr = h.Semantic.Retrieve(ctx, query, h.KSemantic)
		lexicalDocs, lexicalErr = h.Lexical.Retrieve(ctx, query, h.KLexical)
	}

	if semanticErr != nil {
		return nil, semanticErr
	}
	if lexicalErr != nil {
		return nil, lexicalErr
	}

	return fuse(semanticDocs, lexicalDocs, h.KFinal), nil
}

// fuse concatenates semantic-then-lexical, keeps the first occurrence of
// each FusionKey and truncates to kFinal.
func fuse(semanticDocs, lexicalDocs []schema.RetrievedDocument, kFinal int) []schema.RetrievedDocument {
	seen := make(map[schema.FusionKey]bool)
	var merged []schema.RetrievedDocument

	for _, doc := range append(append([]schema.RetrievedDocument{}, semanticDocs...), lexicalDocs...) {
		key := doc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, doc)
	}

	if len(merged) > kFinal {
		merged = merged[:kFinal]
	}
	return merged
}

// Ensure both engines satisfy the Engine interface.
var _ Engine = (*SemanticRetriever)(nil)
var _ Engine = (*BM25Retriever)(nil)
