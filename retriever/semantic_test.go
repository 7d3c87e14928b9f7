package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/mediquery/schema"
	"github.com/aqua777/mediquery/store"
)

// stubVectorStore returns fixed results, recording the query.
type stubVectorStore struct {
	results      []store.Result
	err          error
	gotEmbedding []float64
	gotTopK      int
}

func (s *stubVectorStore) Add(ctx context.Context, entries []store.Entry) ([]string, error) {
	return nil, nil
}

func (s *stubVectorStore) Query(ctx context.Context, embedding []float64, topK int) ([]store.Result, error) {
	s.gotEmbedding = embedding
	s.gotTopK = topK
	return s.results, s.err
}

// stubEmbedding returns a fixed vector.
type stubEmbedding struct {
	vector []float64
	err    error
}

func (s *stubEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return s.vector, s.err
}

func (s *stubEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return s.vector, s.err
}

func (s *stubEmbedding) ModelName() string { return "stub" }

func TestSemanticRetrieve(t *testing.T) {
	vs := &stubVectorStore{results: []store.Result{
		{
			Document: schema.RetrievedDocument{
				Text:     "relevant passage",
				Metadata: schema.Metadata{Source: "a.pdf", Page: 4},
			},
			Similarity: 0.92,
		},
	}}
	em := &stubEmbedding{vector: []float64{0.1, 0.2}}

	r := NewSemanticRetriever(vs, em)
	docs, err := r.Retrieve(context.Background(), "the question", 1)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "relevant passage", docs[0].Text)
	assert.Equal(t, []float64{0.1, 0.2}, vs.gotEmbedding)
	assert.Equal(t, 1, vs.gotTopK)
}

func TestSemanticRetrieveEmbeddingError(t *testing.T) {
	r := NewSemanticRetriever(&stubVectorStore{}, &stubEmbedding{err: errors.New("endpoint down")})

	_, err := r.Retrieve(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query embedding")
}

func TestSemanticRetrieveStoreError(t *testing.T) {
	vs := &stubVectorStore{err: store.ErrVectorIndexUnavailable}
	r := NewSemanticRetriever(vs, &stubEmbedding{vector: []float64{1}})

	_, err := r.Retrieve(context.Background(), "q", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrVectorIndexUnavailable)
}
