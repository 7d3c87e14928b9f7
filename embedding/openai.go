package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedding generates embeddings through an OpenAI-compatible API.
// A custom base URL allows pointing it at any compatible endpoint.
type OpenAIEmbedding struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *slog.Logger
}

// NewOpenAIEmbedding creates an OpenAI embedding client. An empty apiKey
// falls back to OPENAI_API_KEY; an empty baseURL uses the default API.
func NewOpenAIEmbedding(apiKey, baseURL, modelName string) *OpenAIEmbedding {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := openai.SmallEmbedding3
	if modelName != "" {
		model = openai.EmbeddingModel(modelName)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIEmbedding{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// GetTextEmbedding generates an embedding for a document text.
func (o *OpenAIEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := o.getEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// GetQueryEmbedding generates an embedding for a query.
func (o *OpenAIEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return o.GetTextEmbedding(ctx, query)
}

// ModelName returns the configured model identifier.
func (o *OpenAIEmbedding) ModelName() string {
	return string(o.model)
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts in a
// single request.
func (o *OpenAIEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := o.getEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}

	if callback != nil {
		callback(len(texts), len(texts))
	}
	return embeddings, nil
}

// getEmbeddings performs the embedding request.
func (o *OpenAIEmbedding) getEmbeddings(ctx context.Context, inputs []string) ([][]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: o.model,
	})
	if err != nil {
		o.logger.Error("CreateEmbeddings failed", "model", o.model, "error", err)
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embedding64 := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embedding64[j] = float64(v)
		}
		embeddings[i] = embedding64
	}
	return embeddings, nil
}

// Ensure OpenAIEmbedding implements the interfaces.
var _ Model = (*OpenAIEmbedding)(nil)
var _ BatchModel = (*OpenAIEmbedding)(nil)
