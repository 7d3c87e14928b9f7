package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/mediquery/schema"
)

// stubEngine returns fixed documents, recording the requested k.
type stubEngine struct {
	docs []schema.RetrievedDocument
	err  error
	gotK int
}

func (s *stubEngine) Retrieve(ctx context.Context, query string, k int) ([]schema.RetrievedDocument, error) {
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	if len(s.docs) > k {
		return s.docs[:k], nil
	}
	return s.docs, nil
}

func doc(source string, page int, text string) schema.RetrievedDocument {
	return schema.RetrievedDocument{
		Text:     text,
		Metadata: schema.Metadata{Source: source, Page: page},
	}
}

func TestHybridSemanticFirst(t *testing.T) {
	semantic := &stubEngine{docs: []schema.RetrievedDocument{doc("a.pdf", 1, "semantic hit")}}
	lexical := &stubEngine{docs: []schema.RetrievedDocument{doc("b.pdf", 1, "lexical hit")}}

	h := NewHybridRetriever(semantic, lexical, WithKValues(1, 1, 2))

	docs, err := h.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "semantic hit", docs[0].Text)
	assert.Equal(t, "lexical hit", docs[1].Text)
}

func TestHybridDeduplicates(t *testing.T) {
	shared := doc("a.pdf", 2, "the same passage from both engines")
	semantic := &stubEngine{docs: []schema.RetrievedDocument{shared}}
	lexical := &stubEngine{docs: []schema.RetrievedDocument{shared, doc("b.pdf", 1, "unique lexical")}}

	h := NewHybridRetriever(semantic, lexical, WithKValues(1, 2, 3))

	docs, err := h.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "the same passage from both engines", docs[0].Text)
	assert.Equal(t, "unique lexical", docs[1].Text)
}

func TestHybridTruncatesToKFinal(t *testing.T) {
	semantic := &stubEngine{docs: []schema.RetrievedDocument{
		doc("a.pdf", 1, "one"),
		doc("a.pdf", 2, "two"),
	}}
	lexical := &stubEngine{docs: []schema.RetrievedDocument{
		doc("b.pdf", 1, "three"),
	}}

	h := NewHybridRetriever(semantic, lexical, WithKValues(2, 1, 1))

	docs, err := h.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one", docs[0].Text)
}

func TestHybridDefaultsToSingleResult(t *testing.T) {
	semantic := &stubEngine{docs: []schema.RetrievedDocument{doc("a.pdf", 1, "semantic")}}
	lexical := &stubEngine{docs: []schema.RetrievedDocument{doc("b.pdf", 1, "lexical")}}

	h := NewHybridRetriever(semantic, lexical)

	docs, err := h.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, semantic.gotK)
	assert.Equal(t, 1, lexical.gotK)
}

func TestHybridEmptyBothEngines(t *testing.T) {
	h := NewHybridRetriever(&stubEngine{}, &stubEngine{})

	docs, err := h.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestHybridPropagatesErrors(t *testing.T) {
	boom := errors.New("index unavailable")

	h := NewHybridRetriever(&stubEngine{err: boom}, &stubEngine{})
	_, err := h.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, boom)

	h = NewHybridRetriever(&stubEngine{}, &stubEngine{err: boom})
	_, err = h.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, boom)
}

func TestHybridSequentialMatchesConcurrent(t *testing.T) {
	docs := []schema.RetrievedDocument{
		doc("a.pdf", 1, "first"),
		doc("a.pdf", 2, "second"),
	}
	build := func(concurrent bool) *HybridRetriever {
		return NewHybridRetriever(
			&stubEngine{docs: docs},
			&stubEngine{docs: []schema.RetrievedDocument{doc("b.pdf", 1, "third")}},
			WithKValues(2, 1, 3),
			WithConcurrent(concurrent),
		)
	}

	parallel, err := build(true).Retrieve(context.Background(), "query")
	require.NoError(t, err)
	sequential, err := build(false).Retrieve(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}
