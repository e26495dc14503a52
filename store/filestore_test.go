package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/types"
)

// bagEmbedder maps text to a normalized character-frequency vector. The same
// text always embeds to the same unit vector, so a query equal to a chunk's
// own text has similarity 1.0 with it.
type bagEmbedder struct{}

func (bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 128)
	for _, r := range text {
		vec[int(r)%128]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := float32(math.Sqrt(sum))
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func chunksOf(texts ...string) []types.Chunk {
	chunks := make([]types.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = types.Chunk{Index: i, Content: text}
	}
	return chunks
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), bagEmbedder{})
	require.NoError(t, err)
	return s
}

func TestFileStoreSelfRetrieval(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	chunks := chunksOf("the quick brown fox", "zzzz assembly manual", "warranty information")
	path, err := s.Create(ctx, "doc-1", chunks)
	require.NoError(t, err)
	assert.FileExists(t, path)

	idx, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)

	got, err := idx.Search(ctx, "zzzz assembly manual", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, chunks[1], got[0])
}

func TestFileStoreLoadNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Load(ctx, "never-created")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.NotErrorIs(t, err, ErrDocumentNotFound)
}

func TestFileStoreSearchBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, "doc-1", chunksOf("one", "two", "three"))
	require.NoError(t, err)
	idx, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)

	got, err := idx.Search(ctx, "two", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = idx.Search(ctx, "two", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// k <= 0 falls back to the default.
	got, err = idx.Search(ctx, "two", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFileStoreTiesByChunkOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Identical contents embed identically, so all similarities tie.
	_, err := s.Create(ctx, "doc-1", chunksOf("same", "same", "same"))
	require.NoError(t, err)
	idx, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)

	got, err := idx.Search(ctx, "same", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, chunk := range got {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestFileStoreReingestReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, "doc-1", chunksOf("old content"))
	require.NoError(t, err)
	_, err = s.Create(ctx, "doc-1", chunksOf("new content"))
	require.NoError(t, err)

	idx, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)
	got, err := idx.Search(ctx, "old content", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new content", got[0].Content)
}

func TestFileStoreEmptyIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	path, err := s.Create(ctx, "doc-1", nil)
	require.NoError(t, err)
	assert.FileExists(t, path)

	idx, err := s.Load(ctx, "doc-1")
	require.NoError(t, err)
	got, err := idx.Search(ctx, "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreCreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, failingEmbedder{})
	require.NoError(t, err)

	_, err = s.Create(ctx, "doc-1", chunksOf("a", "b"))
	require.Error(t, err)

	// Nothing persisted, not even a temp file.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	good, err := NewFileStore(dir, bagEmbedder{})
	require.NoError(t, err)
	_, err = good.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, "doc-1", chunksOf("content"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "doc-1"))
	_, err = s.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrIndexNotFound)

	// Deleting again is fine.
	assert.NoError(t, s.Delete(ctx, "doc-1"))
}

func TestFileStoreNoTempFileAfterCreate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, bagEmbedder{})
	require.NoError(t, err)

	_, err = s.Create(ctx, "doc-1", chunksOf("content"))
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
