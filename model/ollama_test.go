package model

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedderEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OllamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		json.NewEncoder(w).Encode(OllamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 2)

	// Normalized: (3,4)/5.
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

// On upstream failure the embedder must return the error, never a
// placeholder vector: a zero vector would spuriously skew rankings.
func TestOllamaEmbedderFailFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, vec)
	assert.Contains(t, err.Error(), "ollama API error")
}

func TestOllamaEmbedderEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OllamaEmbeddingResponse{})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, vec)
}

func TestOllamaEmbedderBatchFailsWhole(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 2 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(OllamaEmbeddingResponse{Embedding: []float64{1, 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "embed chunk 2 of 3")
}
