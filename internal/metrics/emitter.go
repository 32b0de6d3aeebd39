package metrics

import "github.com/findshroom/findshroom-server/internal/store"

// ChangeCounter is a store.EventEmitter that counts committed writes.
type ChangeCounter struct {
	m *Metrics
}

// NewChangeCounter wraps m as a store.EventEmitter.
func NewChangeCounter(m *Metrics) *ChangeCounter {
	return &ChangeCounter{m: m}
}

// Emit implements store.EventEmitter.
func (c *ChangeCounter) Emit(change store.Change) {
	c.m.ObserveChange(string(change.Collection), string(change.Op))
}
