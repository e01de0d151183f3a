package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"raglite/types"
)

// PostgresStore keeps documents and chunk embeddings in Postgres with
// the pgvector extension. Unlike the flat store, deletes remove rows
// physically, so Compact is a no-op here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
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

	return &PostgresStore{
		pool:   pool,
		logger: slog.Default(),
	}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := `
    CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		page_count INT NOT NULL DEFAULT 0,
		upload_time TIMESTAMP WITH TIME ZONE,
		chunk_count INT NOT NULL DEFAULT 0
	);

    CREATE TABLE IF NOT EXISTS chunks (
        id UUID PRIMARY KEY,
        row_id BIGSERIAL,
        document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
        chunk_index INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(768)
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) AddDocument(ctx context.Context, doc types.Document, chunks []types.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d != %d", len(chunks), len(embeddings))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, filename, page_count, upload_time, chunk_count)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			page_count = EXCLUDED.page_count,
			upload_time = EXCLUDED.upload_time,
			chunk_count = EXCLUDED.chunk_count`,
		doc.ID, doc.Filename, doc.PageCount, doc.UploadTime, len(chunks),
	)
	if err != nil {
		return err
	}

	for i, c := range chunks {
		_, err = tx.Exec(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), doc.ID, c.Index, c.Text, pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.logger.Info("document indexed", "document_id", doc.ID, "chunks", len(chunks))
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, vec []float32, k int, docIDs []string) ([]types.SearchResult, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if k <= 0 {
		return nil, nil
	}

	vector := pgvector.NewVector(vec)

	query := `
		SELECT c.row_id, c.document_id, c.chunk_index, c.content,
		       c.embedding <=> $1 AS distance
		FROM chunks c
		WHERE c.embedding IS NOT NULL
	`
	args := []any{vector}
	if len(docIDs) > 0 {
		query += " AND c.document_id = ANY($2)"
		args = append(args, docIDs)
	}
	query += fmt.Sprintf(" ORDER BY c.embedding <=> $1, c.row_id LIMIT %d", k)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		if err := rows.Scan(&r.RowID, &r.Chunk.DocumentID, &r.Chunk.Index, &r.Chunk.Text, &r.Distance); err != nil {
			return nil, err
		}
		// Cosine distance in [0,2] mapped to a similarity in [0,1].
		r.Similarity = 1 - r.Distance/2
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgresStore) GetDocumentChunks(ctx context.Context, docID string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT content FROM chunks WHERE document_id = $1 ORDER BY chunk_index", docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

func (p *PostgresStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, filename, page_count, upload_time, chunk_count FROM documents ORDER BY upload_time, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var d types.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.PageCount, &d.UploadTime, &d.ChunkCount); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) DeleteDocument(ctx context.Context, docID string) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) ClearAll(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, "TRUNCATE chunks, documents")
	return err
}

// Compact is a no-op: deletes cascade, so the chunks table never holds
// rows for deleted documents.
func (p *PostgresStore) Compact(ctx context.Context) (int, error) {
	return 0, nil
}

func (p *PostgresStore) Stats(ctx context.Context) (types.StoreStats, error) {
	var stats types.StoreStats
	err := p.pool.QueryRow(ctx,
		"SELECT (SELECT count(*) FROM documents), (SELECT count(*) FROM chunks)").
		Scan(&stats.DocumentCount, &stats.ChunkCount)
	if err != nil {
		return stats, err
	}
	stats.IndexRows = stats.ChunkCount
	return stats, nil
}

// Close закрывает пул подключений.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
	return nil
}
