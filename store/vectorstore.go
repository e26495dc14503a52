package store

import (
	"context"
	"errors"

	"docqa/types"
)

// DefaultTopK is the number of chunks retrieved per query when the caller
// does not ask for a specific k.
const DefaultTopK = 4

// DefaultEmbeddingDim is the vector width assumed when none is configured.
// It matches OpenAI's text-embedding-3-small.
const DefaultEmbeddingDim = 1536

// ErrIndexNotFound reports that no vector index has ever been created for a
// document identifier. Callers check it with errors.Is to tell "document was
// never indexed" apart from any other failure.
var ErrIndexNotFound = errors.New("vector index not found")

// Index is a loaded, searchable vector index for a single document.
type Index interface {
	// Search embeds the query text and returns the k most similar chunks,
	// ranked by descending similarity. Ties are broken by ascending chunk
	// index. k <= 0 means DefaultTopK.
	Search(ctx context.Context, query string, k int) ([]types.Chunk, error)
}

// VectorStorer owns one persisted vector index per document.
type VectorStorer interface {
	// Create embeds every chunk, builds an index over the (vector, chunk)
	// pairs and persists it under docID, replacing any previous index for
	// that identifier. Create is all-or-nothing: on error no partial index
	// is left behind. The returned string locates the persisted index.
	Create(ctx context.Context, docID string, chunks []types.Chunk) (string, error)

	// Load resolves the persisted index for docID. Returns ErrIndexNotFound
	// when no index exists for that identifier.
	Load(ctx context.Context, docID string) (Index, error)

	// Delete removes the persisted index for docID. Deleting an index that
	// does not exist is not an error.
	Delete(ctx context.Context, docID string) error
}
