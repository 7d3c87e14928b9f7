// Package chromem implements the vector store on top of chromem-go.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/aqua777/mediquery/schema"
	"github.com/aqua777/mediquery/store"
	"github.com/philippgille/chromem-go"
)

// Fingerprint records the identity of the embedding model used to build
// the index. It is written at ingestion time and validated when the store
// is opened for querying, so a query-time model mismatch fails loudly
// instead of silently degrading relevance.
type Fingerprint struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// Store is a vector store backed by chromem-go.
type Store struct {
	db              *chromem.DB
	collection      *chromem.Collection
	fingerprintPath string
}

// NewStore opens (or creates) a chromem collection. If persistPath is
// empty the store is in-memory only, which is used by tests and has no
// fingerprint.
func NewStore(persistPath, collectionName string) (*Store, error) {
	var db *chromem.DB
	var fingerprintPath string

	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open chromem db: %v", store.ErrVectorIndexUnavailable, err)
		}
		fingerprintPath = persistPath + ".fingerprint"
	} else {
		db = chromem.NewDB()
	}

	// Embeddings are computed externally and passed explicitly, so no
	// embedding function is registered with the collection.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get or create collection: %v", store.ErrVectorIndexUnavailable, err)
	}

	return &Store{
		db:              db,
		collection:      collection,
		fingerprintPath: fingerprintPath,
	}, nil
}

// WriteFingerprint records the embedding model identity next to the
// persisted index. No-op for in-memory stores.
func (s *Store) WriteFingerprint(fp Fingerprint) error {
	if s.fingerprintPath == "" {
		return nil
	}
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to marshal fingerprint: %w", err)
	}
	return os.WriteFile(s.fingerprintPath, data, 0o644)
}

// VerifyFingerprint checks the recorded embedding model against the one
// configured for querying. A missing fingerprint file is tolerated
// (indexes built before fingerprinting existed); a mismatch is a hard
// error wrapping store.ErrVectorIndexUnavailable.
func (s *Store) VerifyFingerprint(model string) error {
	if s.fingerprintPath == "" {
		return nil
	}

	data, err := os.ReadFile(s.fingerprintPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to read fingerprint: %v", store.ErrVectorIndexUnavailable, err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return fmt.Errorf("%w: failed to parse fingerprint: %v", store.ErrVectorIndexUnavailable, err)
	}

	if fp.Model != model {
		return fmt.Errorf("%w: index was built with embedding model %q but %q is configured, re-run ingestion",
			store.ErrVectorIndexUnavailable, fp.Model, model)
	}
	return nil
}

// Add persists entries with their embeddings.
func (s *Store) Add(ctx context.Context, entries []store.Entry) ([]string, error) {
	docs := make([]chromem.Document, len(entries))
	ids := make([]string, len(entries))

	for i, entry := range entries {
		if len(entry.Embedding) == 0 {
			return nil, fmt.Errorf("entry %s has no embedding", entry.ID)
		}

		embedding32 := make([]float32, len(entry.Embedding))
		for j, v := range entry.Embedding {
			embedding32[j] = float32(v)
		}

		docs[i] = chromem.Document{
			ID:      entry.ID,
			Content: entry.Text,
			Metadata: map[string]string{
				"source": entry.Metadata.Source,
				"page":   strconv.Itoa(entry.Metadata.Page),
			},
			Embedding: embedding32,
		}
		ids[i] = entry.ID
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents to chromem collection: %w", err)
	}
	return ids, nil
}

// Query returns the topK nearest entries by cosine similarity, ordered by
// descending similarity as reported by chromem.
func (s *Store) Query(ctx context.Context, embedding []float64, topK int) ([]store.Result, error) {
	// chromem rejects queries asking for more results than stored documents.
	if count := s.collection.Count(); count < topK {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	embedding32 := make([]float32, len(embedding))
	for i, v := range embedding {
		embedding32[i] = float32(v)
	}

	res, err := s.collection.QueryEmbedding(ctx, embedding32, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", store.ErrVectorIndexUnavailable, err)
	}

	results := make([]store.Result, len(res))
	for i, doc := range res {
		page := 0
		if p, err := strconv.Atoi(doc.Metadata["page"]); err == nil {
			page = p
		}
		results[i] = store.Result{
			Document: schema.RetrievedDocument{
				Text: doc.Content,
				Metadata: schema.Metadata{
					Source: doc.Metadata["source"],
					Page:   page,
				},
			},
			Similarity: float64(doc.Similarity),
		}
	}
	return results, nil
}

// Ensure Store implements the interface.
var _ store.VectorStore = (*Store)(nil)
