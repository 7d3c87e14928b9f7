// Package schema defines the data types shared across the mediquery pipeline.
package schema

// Metadata carries the citation information attached to a chunk.
// Page is 1-based; values <= 0 mean the page is unknown.
type Metadata struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// Chunk is the atomic retrieval unit: a bounded span of drug-label text
// with citation metadata. Chunks are immutable once loaded; ID is the
// load-order index within the corpus and is unique per load.
type Chunk struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// RankedChunk is a chunk with a lexical relevance score. Produced fresh
// per query, never persisted.
type RankedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievedDocument is the normalized result from either retrieval engine
// and the common currency for fusion. Scores are intentionally dropped at
// this boundary; rank position is the only signal preserved downstream.
type RetrievedDocument struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// fusionKeyPrefixLen is the number of leading text bytes that identify a
// passage alongside its source and page.
const fusionKeyPrefixLen = 100

// FusionKey identifies "the same passage" across retrieval engines even
// when their scores differ. Two documents with equal keys are duplicates;
// only the first encountered is kept.
type FusionKey struct {
	Source string
	Page   int
	Prefix string
}

// Key returns the document's FusionKey.
func (d RetrievedDocument) Key() FusionKey {
	prefix := d.Text
	if len(prefix) > fusionKeyPrefixLen {
		prefix = prefix[:fusionKeyPrefixLen]
	}
	return FusionKey{
		Source: d.Metadata.Source,
		Page:   d.Metadata.Page,
		Prefix: prefix,
	}
}

// Document converts a ranked lexical result to the normalized form.
func (r RankedChunk) Document() RetrievedDocument {
	return RetrievedDocument{
		Text:     r.Chunk.Text,
		Metadata: r.Chunk.Metadata,
	}
}
