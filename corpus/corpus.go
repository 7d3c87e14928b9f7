// Package corpus loads the persisted chunk corpus produced by ingestion.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/aqua777/mediquery/schema"
)

// ErrCorpusUnavailable indicates the chunks artifact is missing. Callers
// must not retry without first running ingestion.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// Store provides read-only access to the ordered chunk corpus. The corpus
// is loaded from disk on first use and cached for the process lifetime;
// there is no unload or reload. A Store is safe for concurrent use.
type Store struct {
	path string

	once   sync.Once
	chunks []schema.Chunk
	err    error
}

// NewStore creates a Store backed by the given chunks.jsonl path. The file
// is not touched until Chunks is first called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Chunks returns the full ordered corpus, loading it on first call.
// Concurrent callers share a single load.
func (s *Store) Chunks() ([]schema.Chunk, error) {
	s.once.Do(func() {
		s.chunks, s.err = load(s.path)
	})
	return s.chunks, s.err
}

// load reads one JSON chunk record per line.
func load(path string) ([]schema.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: chunks file not found at %s, run ingestion first", ErrCorpusUnavailable, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}
	defer f.Close()

	var chunks []schema.Chunk
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(f)
	// Chunks run ~1000 characters but PDF extraction can produce long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk schema.Chunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, fmt.Errorf("failed to parse chunk record at line %d: %w", lineNo, err)
		}
		if seen[chunk.ID] {
			return nil, fmt.Errorf("duplicate chunk id %d at line %d", chunk.ID, lineNo)
		}
		seen[chunk.ID] = true
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks file: %w", err)
	}

	return chunks, nil
}
