package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raglite/types"
)

func newTestStore(t *testing.T) *FlatStore {
	t.Helper()
	dir := t.TempDir()
	return NewFlatStore(filepath.Join(dir, "index.gob"), filepath.Join(dir, "metadata.json"))
}

func testDoc(id string) types.Document {
	return types.Document{
		ID:         id,
		Filename:   id + ".txt",
		PageCount:  1,
		UploadTime: time.Now(),
	}
}

func addDoc(t *testing.T, s *FlatStore, id string, vecs [][]float32) {
	t.Helper()
	chunks := make([]types.Chunk, len(vecs))
	for i := range vecs {
		chunks[i] = types.Chunk{Text: id + " chunk " + string(rune('0'+i)), Index: i, DocumentID: id}
	}
	require.NoError(t, s.AddDocument(context.Background(), testDoc(id), chunks, vecs))
}

func TestSearchEmptyIndex(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRankingAndTopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	})

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Ranked by non-decreasing distance, no duplicate rows.
	seen := map[int64]bool{}
	for i, r := range results {
		assert.False(t, seen[r.RowID], "duplicate row id %d", r.RowID)
		seen[r.RowID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, r.Distance, results[i-1].Distance)
			assert.LessOrEqual(t, r.Similarity, results[i-1].Similarity)
		}
	}
	assert.Equal(t, int64(0), results[0].RowID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestSearchAtMostK(t *testing.T) {
	s := newTestStore(t)
	addDoc(t, s, "doc1", [][]float32{{1, 0}, {0, 1}})

	results, err := s.Search(context.Background(), []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchDocumentFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{{1, 0}, {0.8, 0.2}})
	addDoc(t, s, "doc2", [][]float32{{0.99, 0.01}, {0.95, 0.05}})

	results, err := s.Search(ctx, []float32{1, 0}, 5, []string{"doc2"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "doc2", r.Chunk.DocumentID)
	}
}

func TestDeleteDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{{1, 0}})
	addDoc(t, s, "doc2", [][]float32{{0, 1}})

	ok, err := s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, ok)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc2", docs[0].ID)

	// Stale rows stay in the index but never surface in results.
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.IndexRows)
	assert.Equal(t, 1, stats.ChunkCount)

	results, err := s.Search(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc1", r.Chunk.DocumentID)
	}

	ok, err = s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompactDropsStaleRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{{1, 0}, {0.9, 0.1}})
	addDoc(t, s, "doc2", [][]float32{{0, 1}})

	_, err := s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)

	removed, err := s.Compact(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.IndexRows)

	// Surviving rows keep their ids and remain searchable.
	results, err := s.Search(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].RowID)

	removed, err = s.Compact(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestClearAllIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{{1, 0}})

	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, s.ClearAll(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.DocumentCount)
	assert.Zero(t, stats.IndexRows)

	results, err := s.Search(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRowIDsNeverReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addDoc(t, s, "doc1", [][]float32{{1, 0}, {0, 1}})
	_, err := s.DeleteDocument(ctx, "doc1")
	require.NoError(t, err)
	_, err = s.Compact(ctx)
	require.NoError(t, err)

	addDoc(t, s, "doc2", [][]float32{{1, 0}})
	results, err := s.Search(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].RowID)
}

func TestSnapshotReload(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.gob")
	metaPath := filepath.Join(dir, "metadata.json")
	ctx := context.Background()

	s := NewFlatStore(indexPath, metaPath)
	addDoc(t, s, "doc1", [][]float32{{1, 0}, {0, 1}})

	reloaded := NewFlatStore(indexPath, metaPath)
	stats, err := reloaded.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 2, stats.IndexRows)

	results, err := reloaded.Search(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].Chunk.DocumentID)

	texts, err := reloaded.GetDocumentChunks(ctx, "doc1")
	require.NoError(t, err)
	assert.Len(t, texts, 2)
}

func TestMissingSnapshotStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewFlatStore(filepath.Join(dir, "nope.gob"), filepath.Join(dir, "nope.json"))
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.IndexRows)
}

func TestGetDocumentChunksUnknown(t *testing.T) {
	s := newTestStore(t)
	texts, err := s.GetDocumentChunks(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestAddDocumentLengthMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.AddDocument(context.Background(), testDoc("doc1"),
		[]types.Chunk{{Text: "a"}}, [][]float32{{1, 0}, {0, 1}})
	require.Error(t, err)
}
