// Package retriever provides the lexical, semantic and hybrid retrieval
// engines of the question-answering pipeline.
package retriever

import (
	"context"
	"fmt"

	"github.com/aqua777/mediquery/embedding"
	"github.com/aqua777/mediquery/schema"
	"github.com/aqua777/mediquery/store"
)

// SemanticRetriever retrieves documents by embedding the query and running
// a nearest-neighbor search against the persisted vector index.
type SemanticRetriever struct {
	vectorStore    store.VectorStore
	embeddingModel embedding.Model
}

// NewSemanticRetriever creates a semantic retriever. The embedding model
// must match the one recorded for the index at ingestion time.
func NewSemanticRetriever(vectorStore store.VectorStore, embeddingModel embedding.Model) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore:    vectorStore,
		embeddingModel: embeddingModel,
	}
}

// Retrieve returns at most k documents ordered by descending similarity
// as reported by the vector index.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, k int) ([]schema.RetrievedDocument, error) {
	queryEmbedding, err := r.embeddingModel.GetQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	results, err := r.vectorStore.Query(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	docs := make([]schema.RetrievedDocument, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}
	return docs, nil
}
