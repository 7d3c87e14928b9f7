package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aqua777/mediquery/embedding"
	"github.com/aqua777/mediquery/rag"
	"github.com/aqua777/mediquery/schema"
	"github.com/aqua777/mediquery/store"
	"github.com/aqua777/mediquery/store/chromem"
	"github.com/aqua777/mediquery/textsplitter"
)

// Stats summarizes an ingestion run.
type Stats struct {
	Pages  int
	Chunks int
	Tokens int
}

// Pipeline turns a directory of labeling PDFs into the two retrieval
// artifacts: the chunks.jsonl corpus for lexical search and the chromem
// index for semantic search. Both are rebuilt from scratch on every run.
type Pipeline struct {
	splitter    textsplitter.TextSplitter
	embedder    embedding.Model
	vectorStore *chromem.Store
	chunksPath  string
	tokenSizer  textsplitter.Sizer
	logger      *slog.Logger
	onProgress  embedding.ProgressCallback
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithSplitter sets a custom text splitter.
func WithSplitter(splitter textsplitter.TextSplitter) PipelineOption {
	return func(p *Pipeline) {
		p.splitter = splitter
	}
}

// WithTokenSizer enables per-run token accounting in Stats.
func WithTokenSizer(sizer textsplitter.Sizer) PipelineOption {
	return func(p *Pipeline) {
		p.tokenSizer = sizer
	}
}

// WithProgress registers an observer for embedding progress.
func WithProgress(cb embedding.ProgressCallback) PipelineOption {
	return func(p *Pipeline) {
		p.onProgress = cb
	}
}

// WithPipelineLogger sets a custom logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an ingestion pipeline writing to chunksPath and the
// given vector store.
func NewPipeline(embedder embedding.Model, vectorStore *chromem.Store, chunksPath string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		splitter:    textsplitter.NewSentenceSplitter(),
		embedder:    embedder,
		vectorStore: vectorStore,
		chunksPath:  chunksPath,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run ingests every PDF under docsDir: extract pages, sanitize, split,
// persist the chunk corpus, embed, index, and record the embedding model
// fingerprint.
func (p *Pipeline) Run(ctx context.Context, docsDir string) (Stats, error) {
	var stats Stats

	pages, err := ReadDir(ctx, docsDir)
	if err != nil {
		return stats, err
	}
	stats.Pages = len(pages)
	p.logger.Info("pages extracted", "pages", len(pages), "dir", docsDir)

	chunks := p.chunkPages(pages)
	if len(chunks) == 0 {
		return stats, fmt.Errorf("no text content extracted from %s", docsDir)
	}
	stats.Chunks = len(chunks)

	if p.tokenSizer != nil {
		for _, chunk := range chunks {
			stats.Tokens += p.tokenSizer.Size(chunk.Text)
		}
	}
	p.logger.Info("chunks built", "chunks", len(chunks), "tokens", stats.Tokens)

	if err := writeChunks(p.chunksPath, chunks); err != nil {
		return stats, err
	}

	entries, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return stats, err
	}

	if _, err := p.vectorStore.Add(ctx, entries); err != nil {
		return stats, err
	}

	fp := chromem.Fingerprint{Model: p.embedder.ModelName()}
	if len(entries) > 0 {
		fp.Dimensions = len(entries[0].Embedding)
	}
	if err := p.vectorStore.WriteFingerprint(fp); err != nil {
		return stats, err
	}

	p.logger.Info("ingestion complete", "chunks", len(chunks), "model", p.embedder.ModelName())
	return stats, nil
}

// chunkPages sanitizes and splits page text, assigning sequential chunk
// IDs across the whole run.
func (p *Pipeline) chunkPages(pages []Page) []schema.Chunk {
	var chunks []schema.Chunk
	nextID := 0

	for _, page := range pages {
		text := rag.SanitizeText(page.Text)
		for _, piece := range p.splitter.SplitText(text) {
			chunks = append(chunks, schema.Chunk{
				ID:   nextID,
				Text: piece,
				Metadata: schema.Metadata{
					Source: page.Source,
					Page:   page.Number,
				},
			})
			nextID++
		}
	}

	return chunks
}

// embedChunks computes embeddings for every chunk, in one batch when the
// provider supports it.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []schema.Chunk) ([]store.Entry, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float64
	if batcher, ok := p.embedder.(embedding.BatchModel); ok {
		var err error
		embeddings, err = batcher.GetTextEmbeddingsBatch(ctx, texts, p.onProgress)
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed: %w", err)
		}
	} else {
		embeddings = make([][]float64, len(texts))
		for i, text := range texts {
			emb, err := p.embedder.GetTextEmbedding(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embedding chunk %d failed: %w", chunks[i].ID, err)
			}
			embeddings[i] = emb
			if p.onProgress != nil {
				p.onProgress(i+1, len(texts))
			}
		}
	}

	entries := make([]store.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = store.Entry{
			ID:        uuid.NewString(),
			Text:      chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: embeddings[i],
		}
	}
	return entries, nil
}

// writeChunks persists the corpus as one JSON record per line.
func writeChunks(path string, chunks []schema.Chunk) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunks file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", chunk.ID, err)
		}
	}
	return nil
}
