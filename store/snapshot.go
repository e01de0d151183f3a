package store

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"raglite/types"
)

// Snapshot layout mirrors the two on-disk artifacts: a gob-encoded
// index file and a JSON metadata file. Both are rewritten in full after
// every mutation; partial-write recovery is out of scope.

type indexSnapshot struct {
	Dim     int
	NextID  int64
	RowIDs  []int64
	Vectors [][]float32
}

type metadataSnapshot struct {
	MetadataStore  map[int64]types.Chunk `json:"metadata_store"`
	DocumentChunks map[string]docRecord  `json:"document_chunks"`
}

// saveLocked writes both snapshot artifacts. Callers hold the write
// lock.
func (s *FlatStore) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0o755); err != nil {
		return fmt.Errorf("persistence: create snapshot dir: %w", err)
	}

	f, err := os.Create(s.indexPath)
	if err != nil {
		return fmt.Errorf("persistence: write index snapshot: %w", err)
	}
	snap := indexSnapshot{
		Dim:     s.index.dim,
		NextID:  s.index.nextID,
		RowIDs:  s.index.rowIDs,
		Vectors: s.index.vectors,
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		return fmt.Errorf("persistence: encode index snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("persistence: close index snapshot: %w", err)
	}

	meta := metadataSnapshot{
		MetadataStore:  s.meta,
		DocumentChunks: s.docs,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: encode metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.metadataPath), 0o755); err != nil {
		return fmt.Errorf("persistence: create metadata dir: %w", err)
	}
	if err := os.WriteFile(s.metadataPath, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write metadata: %w", err)
	}
	return nil
}

// load restores both artifacts if both exist. Absence or corruption is
// non-fatal: the store stays empty.
func (s *FlatStore) load() {
	f, err := os.Open(s.indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not open index snapshot, starting empty", "path", s.indexPath, "error", err)
		}
		return
	}
	defer f.Close()

	data, err := os.ReadFile(s.metadataPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read metadata snapshot, starting empty", "path", s.metadataPath, "error", err)
		}
		return
	}

	var snap indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		s.logger.Warn("corrupt index snapshot, starting empty", "path", s.indexPath, "error", err)
		return
	}
	var meta metadataSnapshot
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Warn("corrupt metadata snapshot, starting empty", "path", s.metadataPath, "error", err)
		return
	}

	s.index.dim = snap.Dim
	s.index.nextID = snap.NextID
	s.index.rowIDs = snap.RowIDs
	s.index.vectors = snap.Vectors
	if meta.MetadataStore != nil {
		s.meta = meta.MetadataStore
	}
	if meta.DocumentChunks != nil {
		s.docs = meta.DocumentChunks
	}
	s.logger.Info("loaded existing snapshot", "rows", s.index.size(), "documents", len(s.docs))
}
