package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/model"
	"docqa/types"
)

// PGVectorStore is the Postgres-backed index backend. Each document's index
// lives in the chunks table under its doc_id; similarity search uses the
// pgvector cosine distance operator. Replacement happens inside one
// transaction, so a concurrent Load sees the old rows or the new ones.
type PGVectorStore struct {
	pool     *pgxpool.Pool
	embedder model.Embedder
}

func NewPGVectorStore(pool *pgxpool.Pool, embedder model.Embedder) *PGVectorStore {
	return &PGVectorStore{pool: pool, embedder: embedder}
}

func (s *PGVectorStore) Create(ctx context.Context, docID string, chunks []types.Chunk) (string, error) {
	id, err := uuid.Parse(docID)
	if err != nil {
		return "", fmt.Errorf("invalid document id %q: %w", docID, err)
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return "", fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
		}
		vectors[i] = vec
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM chunks WHERE doc_id = $1", id); err != nil {
		return "", fmt.Errorf("delete old chunks: %w", err)
	}
	for i, chunk := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (id, doc_id, position, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), id, chunk.Index, chunk.Content, pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return "", fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit index: %w", err)
	}
	return "pgvector://chunks/" + docID, nil
}

func (s *PGVectorStore) Delete(ctx context.Context, docID string) error {
	id, err := uuid.Parse(docID)
	if err != nil {
		// Nothing can be stored under a malformed id.
		return nil
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM chunks WHERE doc_id = $1", id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *PGVectorStore) Load(ctx context.Context, docID string) (Index, error) {
	id, err := uuid.Parse(docID)
	if err != nil {
		// Upload only ever hands out UUIDs, so a malformed id cannot have
		// been ingested: report it as not found, not as a generic failure.
		return nil, fmt.Errorf("document %s: %w", docID, ErrIndexNotFound)
	}

	var count int
	err = s.pool.QueryRow(ctx, "SELECT count(*) FROM chunks WHERE doc_id = $1", id).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("check index: %w", err)
	}
	if count == 0 {
		// An ingested empty document also has zero rows; the upload flow
		// records metadata, so an absent metadata row means never indexed.
		var docs int
		if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM documents WHERE id = $1", id).Scan(&docs); err != nil {
			return nil, fmt.Errorf("check document: %w", err)
		}
		if docs == 0 {
			return nil, fmt.Errorf("document %s: %w", docID, ErrIndexNotFound)
		}
	}
	return &pgIndex{pool: s.pool, embedder: s.embedder, docID: id, empty: count == 0}, nil
}

type pgIndex struct {
	pool     *pgxpool.Pool
	embedder model.Embedder
	docID    uuid.UUID
	empty    bool
}

func (idx *pgIndex) Search(ctx context.Context, query string, k int) ([]types.Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if idx.empty {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := idx.pool.Query(ctx,
		`SELECT position, content
		 FROM chunks
		 WHERE doc_id = $1
		 ORDER BY embedding <=> $2, position
		 LIMIT $3`,
		idx.docID, pgvector.NewVector(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var chunk types.Chunk
		if err := rows.Scan(&chunk.Index, &chunk.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
