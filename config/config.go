// Package config loads the application configuration from YAML with an
// optional .env file for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathsConfig locates the on-disk artifacts.
type PathsConfig struct {
	// DataDir is where fetched labeling PDFs live.
	DataDir string `yaml:"data_dir"`
	// ChromaDir is where the vector index persists.
	ChromaDir string `yaml:"chroma_dir"`
	// ChunksPath is the JSONL chunk corpus used by lexical retrieval.
	ChunksPath string `yaml:"chunks_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	// Provider is "ollama" or "openai".
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures the hybrid retriever.
type RetrievalConfig struct {
	KSemantic  int     `yaml:"k_semantic"`
	KLexical   int     `yaml:"k_lexical"`
	KFinal     int     `yaml:"k_final"`
	BM25K1     float64 `yaml:"bm25_k1"`
	BM25B      float64 `yaml:"bm25_b"`
	Collection string  `yaml:"collection"`
}

// IngestConfig configures chunking.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Config is the root application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// Load reads the config from path, layering defaults under whatever the
// file sets. A missing file yields pure defaults. A .env file next to the
// working directory is loaded first so api_key_env names resolve.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey resolves the provider API key from the configured environment
// variable name.
func (e EmbeddingConfig) APIKey() string {
	return os.Getenv(e.APIKeyEnv)
}

// APIKey resolves the provider API key from the configured environment
// variable name.
func (l LLMConfig) APIKey() string {
	return os.Getenv(l.APIKeyEnv)
}

// Default returns the built-in configuration: local Ollama for both
// embedding and generation, artifacts under ./data and ./chroma_db.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = filepath.Join("data", "fda_pdfs")
	}
	if cfg.Paths.ChromaDir == "" {
		cfg.Paths.ChromaDir = "chroma_db"
	}
	if cfg.Paths.ChunksPath == "" {
		cfg.Paths.ChunksPath = filepath.Join("data", "chunks.jsonl")
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemma2:2b"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}

	if cfg.Retrieval.KSemantic == 0 {
		cfg.Retrieval.KSemantic = 1
	}
	if cfg.Retrieval.KLexical == 0 {
		cfg.Retrieval.KLexical = 1
	}
	if cfg.Retrieval.KFinal == 0 {
		cfg.Retrieval.KFinal = 1
	}
	if cfg.Retrieval.BM25K1 == 0 {
		cfg.Retrieval.BM25K1 = 1.5
	}
	if cfg.Retrieval.BM25B == 0 {
		cfg.Retrieval.BM25B = 0.75
	}
	if cfg.Retrieval.Collection == "" {
		cfg.Retrieval.Collection = "fda_labels"
	}

	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
}
