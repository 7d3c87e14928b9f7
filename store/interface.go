// Package store defines the vector index abstraction used by semantic retrieval.
package store

import (
	"context"
	"errors"

	"github.com/aqua777/mediquery/schema"
)

// ErrVectorIndexUnavailable indicates the persisted vector index could not
// be loaded or queried.
var ErrVectorIndexUnavailable = errors.New("vector index unavailable")

// Entry is a chunk with its embedding, as persisted in the vector index at
// ingestion time.
type Entry struct {
	ID        string
	Text      string
	Metadata  schema.Metadata
	Embedding []float64
}

// Result pairs a retrieved document with the similarity reported by the
// index.
type Result struct {
	Document   schema.RetrievedDocument
	Similarity float64
}

// VectorStore is the similarity-search contract. Implementations return
// results ordered by descending similarity.
type VectorStore interface {
	// Add persists entries and returns their IDs.
	Add(ctx context.Context, entries []Entry) ([]string, error)
	// Query returns at most topK results for the query embedding.
	Query(ctx context.Context, embedding []float64, topK int) ([]Result, error)
}
