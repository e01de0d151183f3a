package types

import (
	"os"
	"strconv"
	"time"
)

// Chunk is one contiguous slice of document text, embedded and indexed
// independently. Immutable once created.
type Chunk struct {
	Text       string            `json:"text"`
	Index      int               `json:"chunk_index"`
	DocumentID string            `json:"document_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Document describes one ingested document and what it owns.
type Document struct {
	ID         string    `json:"document_id"`
	Filename   string    `json:"filename"`
	PageCount  int       `json:"page_count"`
	UploadTime time.Time `json:"upload_time"`
	ChunkCount int       `json:"chunk_count"`
}

// SearchResult is a single retrieval hit. Similarity is derived from
// the L2 distance as 1/(1+distance) and lies in (0,1].
type SearchResult struct {
	Chunk      Chunk
	RowID      int64
	Distance   float64
	Similarity float64
}

// StoreStats reports counters for the status endpoint. IndexRows can
// exceed ChunkCount after deletions until the next compaction.
type StoreStats struct {
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
	IndexRows     int `json:"index_rows"`
}

// HistoryItem is one past question/answer exchange.
type HistoryItem struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type Config struct {
	ServerAddr       string
	StoreBackend     string // "flat" or "postgres"
	IndexPath        string
	MetadataPath     string
	ChunkSize        int
	ChunkOverlap     int
	ChunkStrategy    string // "words" or "recursive"
	DefaultTopK      int
	MaxContextLength int
	EmbedURL         string
	EmbedModel       string
	EmbedTimeout     time.Duration
	LLMURL           string
	LLMModel         string
	GenerateTimeout  time.Duration
	WikipediaAPIURL  string
}

// LoadConfig collects service configuration from environment variables,
// applying defaults where unset.
func LoadConfig() Config {
	return Config{
		ServerAddr:       envStr("SERVER_ADDR", ":8000"),
		StoreBackend:     envStr("STORE_BACKEND", "flat"),
		IndexPath:        envStr("INDEX_PATH", "./data/index.gob"),
		MetadataPath:     envStr("METADATA_PATH", "./data/metadata.json"),
		ChunkSize:        envInt("CHUNK_SIZE", 500),
		ChunkOverlap:     envInt("CHUNK_OVERLAP", 50),
		ChunkStrategy:    envStr("CHUNK_STRATEGY", "words"),
		DefaultTopK:      envInt("DEFAULT_TOP_K", 5),
		MaxContextLength: envInt("MAX_CONTEXT_LENGTH", 4000),
		EmbedURL:         envStr("OLLAMA_EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
		EmbedModel:       envStr("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		EmbedTimeout:     time.Duration(envInt("EMBED_TIMEOUT_SECS", 30)) * time.Second,
		LLMURL:           envStr("LLM_URL", "http://localhost:11434/api/generate"),
		LLMModel:         envStr("LLM_MODEL", "llama3.1"),
		GenerateTimeout:  time.Duration(envInt("GENERATE_TIMEOUT_SECS", 120)) * time.Second,
		WikipediaAPIURL:  envStr("WIKIPEDIA_API_URL", "https://en.wikipedia.org/w/api.php"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
