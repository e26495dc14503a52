package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docqa/types"
)

// ErrDocumentNotFound reports a lookup for a document id that was never
// recorded.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStorer persists the metadata record kept for every upload.
type DocumentStorer interface {
	SaveDocument(context.Context, types.Document) error
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	ListDocuments(ctx context.Context, skip, limit int) ([]types.Document, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Pool exposes the connection pool so the pgvector index backend can share it.
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, filename, filepath, chars, vector_store_path, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			filepath = EXCLUDED.filepath,
			chars = EXCLUDED.chars,
			vector_store_path = EXCLUDED.vector_store_path,
			upload_date = EXCLUDED.upload_date
		`
	_, err := p.pool.Exec(
		ctx,
		query,
		doc.ID,
		doc.Filename,
		doc.Filepath,
		doc.Chars,
		doc.VectorStorePath,
		doc.UploadDate,
	)
	return err
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, filename, filepath, chars, vector_store_path, upload_date
		 FROM documents WHERE id = $1`, docID)

	doc := &types.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.Filepath,
		&doc.Chars,
		&doc.VectorStorePath,
		&doc.UploadDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", docID, ErrDocumentNotFound)
		}
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) ListDocuments(ctx context.Context, skip, limit int) ([]types.Document, error) {
	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, filename, filepath, chars, vector_store_path, upload_date
		 FROM documents ORDER BY upload_date DESC OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.Filename,
			&doc.Filepath,
			&doc.Chars,
			&doc.VectorStorePath,
			&doc.UploadDate,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// schemaSQL builds the DDL for the given embedding width. The chunks column
// is fixed at table creation, so switching embedding models with a different
// width needs a fresh chunks table.
func schemaSQL(embeddingDim int) string {
	if embeddingDim <= 0 {
		embeddingDim = DefaultEmbeddingDim
	}
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		filepath TEXT,
		chars INTEGER NOT NULL DEFAULT 0,
		vector_store_path TEXT,
		upload_date TIMESTAMP WITH TIME ZONE
	);

    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS chunks (
        id UUID PRIMARY KEY,
        doc_id UUID NOT NULL,
        position INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(%d)
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
    `, embeddingDim)
}

func (p *PostgresStore) createTables(ctx context.Context, embeddingDim int) error {
	_, err := p.pool.Exec(ctx, schemaSQL(embeddingDim))
	return err
}

// Init creates the schema. embeddingDim must match the width of the vectors
// the configured embedding model produces (1536 for text-embedding-3-small,
// 768 for nomic-embed-text); zero falls back to DefaultEmbeddingDim.
func (p *PostgresStore) Init(ctx context.Context, embeddingDim int) error {
	return p.createTables(ctx, embeddingDim)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		slog.Info("postgres connection pool closed")
	}
	return nil
}
