package retriever

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/aqua777/mediquery/corpus"
	"github.com/aqua777/mediquery/schema"
)

// BM25 parameter defaults; k1 controls term-frequency saturation, b controls
// document length normalization.
const (
	defaultBM25K1 = 1.5
	defaultBM25B  = 0.75
)

// BM25Retriever ranks corpus chunks by Okapi BM25 term overlap. The index
// is built once over the full corpus on first use and cached for the
// process lifetime; rebuilding requires a process restart. Safe for
// concurrent queries after the build.
type BM25Retriever struct {
	corpus *corpus.Store
	k1     float64
	b      float64

	once sync.Once
	idx  *bm25Index
	err  error
}

// bm25Index holds the corpus statistics computed at build time.
type bm25Index struct {
	chunks       []schema.Chunk
	docTokens    [][]string
	docFreq      map[string]int
	idf          map[string]float64
	avgDocLength float64
}

// BM25Option configures a BM25Retriever.
type BM25Option func(*BM25Retriever)

// WithBM25K1 sets the k1 parameter.
func WithBM25K1(k1 float64) BM25Option {
	return func(r *BM25Retriever) {
		r.k1 = k1
	}
}

// WithBM25B sets the b parameter.
func WithBM25B(b float64) BM25Option {
	return func(r *BM25Retriever) {
		r.b = b
	}
}

// NewBM25Retriever creates a lexical retriever over the given corpus.
func NewBM25Retriever(store *corpus.Store, opts ...BM25Option) *BM25Retriever {
	r := &BM25Retriever{
		corpus: store,
		k1:     defaultBM25K1,
		b:      defaultBM25B,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Rank returns at most k chunks ordered by descending BM25 score, ties
// broken by corpus order. Results are deterministic for an unchanged
// corpus. Returns an error wrapping corpus.ErrCorpusUnavailable if the
// chunks artifact is missing.
func (r *BM25Retriever) Rank(query string, k int) ([]schema.RankedChunk, error) {
	idx, err := r.index()
	if err != nil {
		return nil, err
	}

	if k <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}

	queryTokens := tokenize(query)

	scored := make([]schema.RankedChunk, len(idx.chunks))
	for i := range idx.chunks {
		scored[i] = schema.RankedChunk{
			Chunk: idx.chunks[i],
			Score: idx.score(queryTokens, i, r.k1, r.b),
		}
	}

	// Stable keeps corpus order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Retrieve ranks and normalizes the results to RetrievedDocuments,
// dropping scores at the fusion boundary.
func (r *BM25Retriever) Retrieve(ctx context.Context, query string, k int) ([]schema.RetrievedDocument, error) {
	ranked, err := r.Rank(query, k)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.RetrievedDocument, len(ranked))
	for i, rc := range ranked {
		docs[i] = rc.Document()
	}
	return docs, nil
}

// index returns the built index, building it exactly once even under
// concurrent first queries.
func (r *BM25Retriever) index() (*bm25Index, error) {
	r.once.Do(func() {
		chunks, err := r.corpus.Chunks()
		if err != nil {
			r.err = err
			return
		}
		r.idx = buildIndex(chunks)
	})
	return r.idx, r.err
}

// buildIndex computes document frequencies, smoothed IDF and the average
// document length over the full corpus.
func buildIndex(chunks []schema.Chunk) *bm25Index {
	idx := &bm25Index{
		chunks:    chunks,
		docTokens: make([][]string, len(chunks)),
		docFreq:   make(map[string]int),
		idf:       make(map[string]float64),
	}

	var totalLength int
	for i, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		idx.docTokens[i] = tokens
		totalLength += len(tokens)

		seen := make(map[string]bool)
		for _, token := range tokens {
			if !seen[token] {
				seen[token] = true
				idx.docFreq[token]++
			}
		}
	}

	if len(chunks) > 0 {
		idx.avgDocLength = float64(totalLength) / float64(len(chunks))
	}

	// IDF with +1 smoothing to avoid negative values for very common terms.
	n := float64(len(chunks))
	for term, df := range idx.docFreq {
		idx.idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}

	return idx
}

// score computes the Okapi BM25 score of document i against the query.
func (idx *bm25Index) score(queryTokens []string, i int, k1, b float64) float64 {
	tokens := idx.docTokens[i]
	docLength := float64(len(tokens))
	if docLength == 0 {
		return 0
	}

	tf := make(map[string]int, len(tokens))
	for _, token := range tokens {
		tf[token]++
	}

	var score float64
	for _, term := range queryTokens {
		freq := tf[term]
		if freq == 0 {
			continue
		}

		idf := idx.idf[term]
		tfNorm := float64(freq) * (k1 + 1)
		tfDenom := float64(freq) + k1*(1-b+b*(docLength/idx.avgDocLength))
		score += idf * (tfNorm / tfDenom)
	}
	return score
}

// tokenize lowercases and splits on whitespace, matching the tokenization
// used over the corpus at build time.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
