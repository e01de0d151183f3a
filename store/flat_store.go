package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"raglite/types"
)

// FlatStore keeps the vector index and all document metadata in memory,
// snapshotting both to disk after every mutation. Writers take the
// exclusive lock; searches take the shared lock. Embedding calls never
// happen under either.
type FlatStore struct {
	mu     sync.RWMutex
	logger *slog.Logger

	index *flatIndex
	meta  map[int64]types.Chunk // row id -> owning chunk payload
	docs  map[string]docRecord

	indexPath    string
	metadataPath string
}

type docRecord struct {
	Doc    types.Document `json:"metadata"`
	RowIDs []int64        `json:"vector_row_ids"`
}

// NewFlatStore loads any existing snapshot from indexPath/metadataPath.
// A missing or unreadable snapshot is non-fatal: the store starts
// empty with a warning.
func NewFlatStore(indexPath, metadataPath string) *FlatStore {
	s := &FlatStore{
		logger:       slog.Default(),
		index:        newFlatIndex(),
		meta:         make(map[int64]types.Chunk),
		docs:         make(map[string]docRecord),
		indexPath:    indexPath,
		metadataPath: metadataPath,
	}
	s.load()
	return s
}

func (s *FlatStore) AddDocument(ctx context.Context, doc types.Document, chunks []types.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d != %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return fmt.Errorf("document %s has no chunks", doc.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rowIDs, err := s.index.add(embeddings)
	if err != nil {
		return err
	}
	for i, id := range rowIDs {
		s.meta[id] = chunks[i]
	}
	doc.ChunkCount = len(chunks)
	s.docs[doc.ID] = docRecord{Doc: doc, RowIDs: rowIDs}

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.logger.Info("document indexed", "document_id", doc.ID, "chunks", len(chunks))
	return nil
}

func (s *FlatStore) Search(ctx context.Context, vec []float32, k int, docIDs []string) ([]types.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || s.index.size() == 0 {
		return nil, nil
	}

	// The flat scan has no native filtering, so over-fetch 2k
	// candidates and drop stale rows and filter misses afterwards.
	fetch := 2 * k
	if fetch > s.index.size() {
		fetch = s.index.size()
	}
	hits := s.index.search(vec, fetch)

	var filter map[string]struct{}
	if len(docIDs) > 0 {
		filter = make(map[string]struct{}, len(docIDs))
		for _, id := range docIDs {
			filter[id] = struct{}{}
		}
	}

	results := make([]types.SearchResult, 0, k)
	for _, h := range hits {
		chunk, ok := s.meta[h.RowID]
		if !ok {
			// Row belongs to a deleted document; physical removal
			// waits for Compact.
			continue
		}
		if filter != nil {
			if _, ok := filter[chunk.DocumentID]; !ok {
				continue
			}
		}
		results = append(results, types.SearchResult{
			Chunk:      chunk,
			RowID:      h.RowID,
			Distance:   h.Distance,
			Similarity: 1 / (1 + h.Distance),
		})
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

func (s *FlatStore) GetDocumentChunks(ctx context.Context, docID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[docID]
	if !ok {
		return nil, nil
	}
	texts := make([]string, 0, len(rec.RowIDs))
	for _, id := range rec.RowIDs {
		if chunk, ok := s.meta[id]; ok {
			texts = append(texts, chunk.Text)
		}
	}
	return texts, nil
}

func (s *FlatStore) ListDocuments(ctx context.Context) ([]types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]types.Document, 0, len(s.docs))
	for _, rec := range s.docs {
		docs = append(docs, rec.Doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadTime.Equal(docs[j].UploadTime) {
			return docs[i].UploadTime.Before(docs[j].UploadTime)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *FlatStore) DeleteDocument(ctx context.Context, docID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.docs[docID]
	if !ok {
		return false, nil
	}
	delete(s.docs, docID)
	for _, id := range rec.RowIDs {
		delete(s.meta, id)
	}

	if err := s.saveLocked(); err != nil {
		return true, err
	}
	s.logger.Info("document deleted", "document_id", docID, "stale_rows", len(rec.RowIDs))
	return true, nil
}

func (s *FlatStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.reset()
	s.meta = make(map[int64]types.Chunk)
	s.docs = make(map[string]docRecord)

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.logger.Info("store cleared")
	return nil
}

func (s *FlatStore) Compact(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[int64]struct{}, len(s.meta))
	for id := range s.meta {
		keep[id] = struct{}{}
	}
	removed := s.index.retain(keep)
	if removed == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		return removed, err
	}
	s.logger.Info("index compacted", "rows_removed", removed)
	return removed, nil
}

func (s *FlatStore) Stats(ctx context.Context) (types.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.StoreStats{
		DocumentCount: len(s.docs),
		ChunkCount:    len(s.meta),
		IndexRows:     s.index.size(),
	}, nil
}

func (s *FlatStore) Close() error { return nil }
