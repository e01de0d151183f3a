package store

import (
	"context"

	"raglite/types"
)

// Storer is the contract shared by the flat snapshot-backed store and
// the Postgres/pgvector store. Embeddings are always computed by the
// caller before any call that mutates the index, so no store method
// blocks on the embedding service.
type Storer interface {
	// AddDocument indexes a document's chunks with their embeddings.
	// Row ids are assigned densely and never reused.
	AddDocument(ctx context.Context, doc types.Document, chunks []types.Chunk, embeddings [][]float32) error

	// Search returns up to k hits ranked best-first. A non-empty
	// docIDs restricts results to those documents. An empty index
	// yields an empty result, not an error.
	Search(ctx context.Context, vec []float32, k int, docIDs []string) ([]types.SearchResult, error)

	GetDocumentChunks(ctx context.Context, docID string) ([]string, error)
	ListDocuments(ctx context.Context) ([]types.Document, error)

	// DeleteDocument reports whether the document existed. Physical
	// index rows may survive until Compact.
	DeleteDocument(ctx context.Context, docID string) (bool, error)

	ClearAll(ctx context.Context) error

	// Compact rebuilds the index without rows whose owning document
	// was deleted, returning how many rows were dropped.
	Compact(ctx context.Context) (int, error)

	Stats(ctx context.Context) (types.StoreStats, error)
	Close() error
}
