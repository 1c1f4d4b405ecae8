package graph

import (
	"sync"
)

// HotSwapSnapshot is a thread-safe holder for the snapshot a session is
// currently presenting. Each search swaps in a freshly built snapshot.
type HotSwapSnapshot struct {
	mu      sync.RWMutex
	current *Snapshot
}

func NewHotSwapSnapshot(initial *Snapshot) *HotSwapSnapshot {
	return &HotSwapSnapshot{current: initial}
}

// Swap replaces the current snapshot and returns the previous one.
func (h *HotSwapSnapshot) Swap(next *Snapshot) *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.current
	h.current = next
	return prev
}

// Load returns the current snapshot, or nil if none has been built.
func (h *HotSwapSnapshot) Load() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Clear drops the current snapshot.
func (h *HotSwapSnapshot) Clear() {
	h.Swap(nil)
}

// Lookup delegates to the current snapshot.
func (h *HotSwapSnapshot) Lookup(path string) (*Node, bool) {
	return h.Load().Lookup(path)
}

// Len delegates to the current snapshot.
func (h *HotSwapSnapshot) Len() int {
	return h.Load().Len()
}
