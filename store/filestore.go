package store

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"docqa/model"
	"docqa/types"
)

// FileStore persists one gob-encoded index file per document under a base
// directory. Writes go to a temp file first and are swapped into place with
// an atomic rename, so a concurrent Load sees either the old or the new
// fully-written index, never a partial one.
type FileStore struct {
	dir      string
	embedder model.Embedder
}

// indexFile is the on-disk snapshot. It is self-describing: both the vectors
// and the original chunk texts are reconstructed from it alone.
type indexFile struct {
	Chunks     []types.Chunk
	Embeddings [][]float32
	Dimension  int
}

func NewFileStore(dir string, embedder model.Embedder) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create vector store dir: %w", err)
	}
	return &FileStore{dir: dir, embedder: embedder}, nil
}

func (s *FileStore) path(docID string) string {
	return filepath.Join(s.dir, "index_"+docID+".gob")
}

func (s *FileStore) Create(ctx context.Context, docID string, chunks []types.Chunk) (string, error) {
	snap := indexFile{
		Chunks:     chunks,
		Embeddings: make([][]float32, 0, len(chunks)),
	}
	for _, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return "", fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
		}
		if snap.Dimension == 0 {
			snap.Dimension = len(vec)
		}
		if len(vec) != snap.Dimension {
			return "", fmt.Errorf("embed chunk %d: dimension %d, want %d", chunk.Index, len(vec), snap.Dimension)
		}
		snap.Embeddings = append(snap.Embeddings, vec)
	}

	path := s.path(docID)
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create index file: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(snap); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("encode index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("persist index: %w", err)
	}
	return path, nil
}

func (s *FileStore) Delete(ctx context.Context, docID string) error {
	err := os.Remove(s.path(docID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete index file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, docID string) (Index, error) {
	file, err := os.Open(s.path(docID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", docID, ErrIndexNotFound)
		}
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	var snap indexFile
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &fileIndex{snap: snap, embedder: s.embedder}, nil
}

// fileIndex ranks chunks by brute-force dot product over the loaded
// snapshot. Vectors are unit length, so dot product is cosine similarity.
type fileIndex struct {
	snap     indexFile
	embedder model.Embedder
}

func (idx *fileIndex) Search(ctx context.Context, query string, k int) ([]types.Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(idx.snap.Chunks) == 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		chunk types.Chunk
		score float32
	}
	results := make([]scored, len(idx.snap.Chunks))
	for i, chunk := range idx.snap.Chunks {
		results[i] = scored{chunk: chunk, score: dot(queryVec, idx.snap.Embeddings[i])}
	}

	// Stable sort on a slice already ordered by chunk index keeps ties in
	// ascending index order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	chunks := make([]types.Chunk, k)
	for i := 0; i < k; i++ {
		chunks[i] = results[i].chunk
	}
	return chunks, nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
