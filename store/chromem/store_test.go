package chromem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/mediquery/schema"
	"github.com/aqua777/mediquery/store"
)

func entry(id, text, source string, page int, embedding []float64) store.Entry {
	return store.Entry{
		ID:        id,
		Text:      text,
		Metadata:  schema.Metadata{Source: source, Page: page},
		Embedding: embedding,
	}
}

func TestAddAndQueryRoundtrip(t *testing.T) {
	s, err := NewStore("", "test")
	require.NoError(t, err)

	ctx := context.Background()
	ids, err := s.Add(ctx, []store.Entry{
		entry("a", "ibuprofen side effects", "ibuprofen.pdf", 2, []float64{1, 0, 0}),
		entry("b", "metformin dosing", "metformin.pdf", 5, []float64{0, 1, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	results, err := s.Query(ctx, []float64{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ibuprofen side effects", results[0].Document.Text)
	assert.Equal(t, "ibuprofen.pdf", results[0].Document.Metadata.Source)
	assert.Equal(t, 2, results[0].Document.Metadata.Page)
	assert.InDelta(t, 1.0, results[0].Similarity, 0.001)
}

func TestQueryClampsTopK(t *testing.T) {
	s, err := NewStore("", "test")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.Add(ctx, []store.Entry{
		entry("a", "only document", "a.pdf", 1, []float64{1, 0}),
	})
	require.NoError(t, err)

	// Asking for more results than stored documents must not error.
	results, err := s.Query(ctx, []float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryEmptyStore(t *testing.T) {
	s, err := NewStore("", "test")
	require.NoError(t, err)

	results, err := s.Query(context.Background(), []float64{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddRejectsMissingEmbedding(t *testing.T) {
	s, err := NewStore("", "test")
	require.NoError(t, err)

	_, err = s.Add(context.Background(), []store.Entry{
		{ID: "a", Text: "no embedding", Metadata: schema.Metadata{Source: "a.pdf", Page: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding")
}

func TestFingerprintRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma")
	s, err := NewStore(dir, "test")
	require.NoError(t, err)

	require.NoError(t, s.WriteFingerprint(Fingerprint{Model: "all-minilm", Dimensions: 384}))
	assert.NoError(t, s.VerifyFingerprint("all-minilm"))
}

func TestFingerprintMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma")
	s, err := NewStore(dir, "test")
	require.NoError(t, err)

	require.NoError(t, s.WriteFingerprint(Fingerprint{Model: "all-minilm"}))

	err = s.VerifyFingerprint("text-embedding-3-small")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrVectorIndexUnavailable)
	assert.Contains(t, err.Error(), "re-run ingestion")
}

func TestFingerprintMissingFileTolerated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma")
	s, err := NewStore(dir, "test")
	require.NoError(t, err)

	assert.NoError(t, s.VerifyFingerprint("any-model"))
}

func TestFingerprintInMemoryNoop(t *testing.T) {
	s, err := NewStore("", "test")
	require.NoError(t, err)

	assert.NoError(t, s.WriteFingerprint(Fingerprint{Model: "x"}))
	assert.NoError(t, s.VerifyFingerprint("y"))
}

func TestPersistenceAcrossOpens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma")
	ctx := context.Background()

	s1, err := NewStore(dir, "test")
	require.NoError(t, err)
	_, err = s1.Add(ctx, []store.Entry{
		entry("a", "persisted text", "a.pdf", 1, []float64{0.5, 0.5}),
	})
	require.NoError(t, err)

	s2, err := NewStore(dir, "test")
	require.NoError(t, err)
	results, err := s2.Query(ctx, []float64{0.5, 0.5}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted text", results[0].Document.Text)
}
