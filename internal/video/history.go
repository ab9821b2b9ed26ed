package video

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/justestif/go-soundtrack/internal/db"
)

// MemoryHistory keeps generations for the life of the process.
type MemoryHistory struct {
	mu     sync.RWMutex
	videos []db.Video // oldest first
}

// NewMemoryHistory creates an empty history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Create appends v, assigning an ID if it has none.
func (h *MemoryHistory) Create(_ context.Context, v *db.Video) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.videos = append(h.videos, *v)
	return nil
}

// List returns up to limit videos, newest first.
func (h *MemoryHistory) List(_ context.Context, limit int) ([]db.Video, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.videos)
	if limit > 0 {
		n = min(n, limit)
	}
	out := make([]db.Video, 0, n)
	for i := len(h.videos) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.videos[i])
	}
	return out, nil
}
