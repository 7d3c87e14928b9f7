// Package embedding provides text embedding clients for the retrieval pipeline.
//
// The model used for query embeddings must match the one recorded for the
// persisted vector index; the index fingerprint check in store/chromem
// enforces this at load time.
package embedding

import "context"

// Model is the interface for text embedding providers.
type Model interface {
	// GetTextEmbedding generates an embedding for a document text.
	GetTextEmbedding(ctx context.Context, text string) ([]float64, error)
	// GetQueryEmbedding generates an embedding for a query. It must use
	// the same underlying model as GetTextEmbedding.
	GetQueryEmbedding(ctx context.Context, query string) ([]float64, error)
	// ModelName returns the model identifier, used for index fingerprinting.
	ModelName() string
}

// ProgressCallback reports batch embedding progress as (done, total).
type ProgressCallback func(done, total int)

// BatchModel is implemented by providers that support batch embedding.
type BatchModel interface {
	Model
	// GetTextEmbeddingsBatch generates embeddings for multiple texts.
	GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error)
}
