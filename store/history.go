package store

import (
	"sync"
	"time"

	"raglite/types"
)

// historyLimit caps the log; the oldest entry is evicted on overflow.
const historyLimit = 50

// History is an append-only bounded log of past exchanges. State is
// process-lifetime only.
type History struct {
	mu    sync.RWMutex
	items []types.HistoryItem
}

func NewHistory() *History {
	return &History{}
}

// Append records a question/answer pair, timestamped at call time.
func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, types.HistoryItem{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	if len(h.items) > historyLimit {
		h.items = h.items[len(h.items)-historyLimit:]
	}
}

// List returns entries oldest first.
func (h *History) List() []types.HistoryItem {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
}
