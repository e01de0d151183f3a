package store

import (
	"fmt"
	"sort"
)

// flatIndex is a brute-force L2 index. Row ids are dense, monotonically
// assigned and never reused; removing rows (compaction) keeps surviving
// ids stable.
type flatIndex struct {
	dim     int
	nextID  int64
	rowIDs  []int64
	vectors [][]float32
}

type hit struct {
	RowID    int64
	Distance float64
}

func newFlatIndex() *flatIndex {
	return &flatIndex{}
}

// add appends vectors and returns their assigned row ids. The first
// vector ever added fixes the index dimension.
func (ix *flatIndex) add(vectors [][]float32) ([]int64, error) {
	ids := make([]int64, 0, len(vectors))
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty embedding vector")
		}
		if ix.dim == 0 {
			ix.dim = len(v)
		} else if len(v) != ix.dim {
			return nil, fmt.Errorf("vector dimension mismatch: got %d, index has %d", len(v), ix.dim)
		}
		ix.rowIDs = append(ix.rowIDs, ix.nextID)
		ix.vectors = append(ix.vectors, v)
		ids = append(ids, ix.nextID)
		ix.nextID++
	}
	return ids, nil
}

// search scans every stored row and returns the k nearest by L2
// distance, ties broken by ascending row id for determinism.
func (ix *flatIndex) search(query []float32, k int) []hit {
	if k <= 0 || len(ix.vectors) == 0 {
		return nil
	}
	hits := make([]hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = hit{RowID: ix.rowIDs[i], Distance: l2Distance(query, v)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].RowID < hits[j].RowID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// retain drops every row whose id is not in keep. nextID is untouched
// so ids are never reassigned.
func (ix *flatIndex) retain(keep map[int64]struct{}) int {
	rowIDs := ix.rowIDs[:0]
	vectors := ix.vectors[:0]
	for i, id := range ix.rowIDs {
		if _, ok := keep[id]; ok {
			rowIDs = append(rowIDs, id)
			vectors = append(vectors, ix.vectors[i])
		}
	}
	removed := len(ix.rowIDs) - len(rowIDs)
	ix.rowIDs = rowIDs
	ix.vectors = vectors
	return removed
}

func (ix *flatIndex) size() int { return len(ix.rowIDs) }

func (ix *flatIndex) reset() {
	ix.dim = 0
	ix.nextID = 0
	ix.rowIDs = nil
	ix.vectors = nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Unmatched tail counts fully against the distance.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return sum
}
