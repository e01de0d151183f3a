package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"raglite/types"
)

func result(docID string, index int, text string, sim float64) types.SearchResult {
	return types.SearchResult{
		Chunk:      types.Chunk{Text: text, Index: index, DocumentID: docID},
		Similarity: sim,
	}
}

func TestBuildContextBudget(t *testing.T) {
	results := []types.SearchResult{
		result("d1", 0, strings.Repeat("a", 100), 0.9),
		result("d1", 1, strings.Repeat("b", 100), 0.8),
		result("d2", 0, strings.Repeat("c", 100), 0.7),
	}

	// Budget fits roughly two formatted chunks; the third is dropped
	// whole, never split.
	text, used := buildContext(results, 250)
	assert.Len(t, used, 2)
	assert.Contains(t, text, strings.Repeat("a", 100))
	assert.Contains(t, text, strings.Repeat("b", 100))
	assert.NotContains(t, text, "c")

	// Relevance order preserved.
	assert.Less(t, strings.Index(text, "a"), strings.Index(text, "b"))
}

func TestBuildContextFirstChunkAlwaysIncluded(t *testing.T) {
	results := []types.SearchResult{result("d1", 0, strings.Repeat("x", 500), 0.9)}
	text, used := buildContext(results, 100)
	assert.Len(t, used, 1)
	assert.Contains(t, text, "x")
}

func TestBuildContextEmpty(t *testing.T) {
	text, used := buildContext(nil, 100)
	assert.Empty(t, text)
	assert.Empty(t, used)
}

func TestMeanSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, meanSimilarity(nil))

	used := []types.SearchResult{
		result("d1", 0, "a", 0.9),
		result("d1", 1, "b", 0.5),
	}
	assert.InDelta(t, 0.7, meanSimilarity(used), 1e-9)
}

func TestFormatSourcesDedupByDocument(t *testing.T) {
	used := []types.SearchResult{
		result("d2", 3, "x", 0.9),
		result("d1", 0, "y", 0.8),
		result("d2", 4, "z", 0.7),
	}
	names := map[string]string{"d1": "one.txt", "d2": "two.pdf"}

	sources := formatSources(used, names)
	assert.Len(t, sources, 2)
	assert.Equal(t, "d2", sources[0].DocID)
	assert.Equal(t, "two.pdf", sources[0].Filename)
	assert.Equal(t, "d1", sources[1].DocID)
	assert.InDelta(t, 0.9, sources[0].Relevance, 1e-9)
}
