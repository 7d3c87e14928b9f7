package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aqua777/mediquery/catalog"
	"github.com/aqua777/mediquery/config"
	"github.com/aqua777/mediquery/corpus"
	"github.com/aqua777/mediquery/embedding"
	"github.com/aqua777/mediquery/ingestion"
	"github.com/aqua777/mediquery/llm"
	"github.com/aqua777/mediquery/rag"
	"github.com/aqua777/mediquery/retriever"
	"github.com/aqua777/mediquery/store/chromem"
	"github.com/aqua777/mediquery/textsplitter"
)

// fetchLabels downloads labeling PDFs for the built-in drug selection.
func fetchLabels(ctx context.Context, cfg *config.Config, maxPerDrug int) error {
	client := catalog.NewClient()

	total, err := client.FetchAll(ctx, catalog.DrugCategories, cfg.Paths.DataDir, maxPerDrug)
	if err != nil {
		return err
	}

	fmt.Printf("Done. Total PDFs downloaded: %d\n", total)
	return nil
}

// ingestLabels rebuilds the chunk corpus and the vector index from the
// PDFs in the data directory.
func ingestLabels(ctx context.Context, cfg *config.Config) error {
	embedder := newEmbedder(cfg)

	vectorStore, err := chromem.NewStore(cfg.Paths.ChromaDir, cfg.Retrieval.Collection)
	if err != nil {
		return err
	}

	splitter := textsplitter.NewSentenceSplitter(
		textsplitter.WithChunkSize(cfg.Ingest.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.Ingest.ChunkOverlap),
	)

	opts := []ingestion.PipelineOption{
		ingestion.WithSplitter(splitter),
		ingestion.WithProgress(func(done, total int) {
			fmt.Printf("\rEmbedding chunks: %d/%d", done, total)
			if done == total {
				fmt.Println()
			}
		}),
	}
	if sizer, err := textsplitter.NewTokenSizer(""); err == nil {
		opts = append(opts, ingestion.WithTokenSizer(sizer))
	}

	pipeline := ingestion.NewPipeline(embedder, vectorStore, cfg.Paths.ChunksPath, opts...)

	stats, err := pipeline.Run(ctx, cfg.Paths.DataDir)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d pages into %d chunks (%d tokens)\n", stats.Pages, stats.Chunks, stats.Tokens)
	return nil
}

// buildEngine wires the full answering pipeline from the config: chunk
// corpus, vector index with fingerprint check, both retrievers, and the
// generation client.
func buildEngine(cfg *config.Config) (*rag.Engine, error) {
	embedder := newEmbedder(cfg)

	vectorStore, err := chromem.NewStore(cfg.Paths.ChromaDir, cfg.Retrieval.Collection)
	if err != nil {
		return nil, err
	}
	if err := vectorStore.VerifyFingerprint(embedder.ModelName()); err != nil {
		return nil, err
	}

	chunkStore := corpus.NewStore(cfg.Paths.ChunksPath)

	hybrid := retriever.NewHybridRetriever(
		retriever.NewSemanticRetriever(vectorStore, embedder),
		retriever.NewBM25Retriever(chunkStore,
			retriever.WithBM25K1(cfg.Retrieval.BM25K1),
			retriever.WithBM25B(cfg.Retrieval.BM25B),
		),
		retriever.WithKValues(cfg.Retrieval.KSemantic, cfg.Retrieval.KLexical, cfg.Retrieval.KFinal),
	)

	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	return rag.NewEngine(hybrid, generator,
		rag.WithDeadline(time.Duration(cfg.LLM.TimeoutSecs)*time.Second),
	), nil
}

// newEmbedder builds the embedding client for the configured provider.
func newEmbedder(cfg *config.Config) embedding.Model {
	if cfg.Embedding.Provider == "openai" {
		return embedding.NewOpenAIEmbedding(cfg.Embedding.APIKey(), cfg.Embedding.BaseURL, cfg.Embedding.Model)
	}

	var opts []embedding.OllamaOption
	if cfg.Embedding.BaseURL != "" {
		opts = append(opts, embedding.WithOllamaBaseURL(cfg.Embedding.BaseURL))
	}
	if cfg.Embedding.Model != "" {
		opts = append(opts, embedding.WithOllamaModel(cfg.Embedding.Model))
	}
	return embedding.NewOllamaEmbedding(opts...)
}

// newGenerator builds the generation client for the configured provider.
func newGenerator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAIGenerator(cfg.LLM.APIKey(), cfg.LLM.BaseURL, cfg.LLM.Model), nil
	case "ollama", "":
		var opts []llm.OllamaOption
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, llm.WithOllamaBaseURL(cfg.LLM.BaseURL))
		}
		if cfg.LLM.Model != "" {
			opts = append(opts, llm.WithOllamaModel(cfg.LLM.Model))
		}
		return llm.NewOllamaGenerator(opts...), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
