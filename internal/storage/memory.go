// Package storage provides the in-memory engine.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryEngine implements Engine with a plain map guarded by a RWMutex.
//
// It holds no resources beyond the map itself; Close only marks the
// engine unusable so late requests fail the same way as with the
// persistent engine.
type MemoryEngine struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

// NewMemoryEngine constructs a fresh, empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		items: make(map[string][]byte),
	}
}

// Get retrieves the stored bytes for a key.
func (e *MemoryEngine) Get(_ context.Context, key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}
	value, ok := e.items[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a key-value pair.
func (e *MemoryEngine) Put(_ context.Context, key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	e.items[key] = stored
	return nil
}

// Del removes a key. A missing key yields ErrKeyNotFound.
func (e *MemoryEngine) Del(_ context.Context, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if _, ok := e.items[key]; !ok {
		return ErrKeyNotFound
	}
	delete(e.items, key)
	return nil
}

// Batch applies the ordered entries under one write lock, so the whole
// batch is atomic with respect to concurrent readers.
func (e *MemoryEngine) Batch(_ context.Context, entries []BatchEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	for _, entry := range entries {
		switch entry.Type {
		case OpPut:
			stored := make([]byte, len(entry.Value))
			copy(stored, entry.Value)
			e.items[entry.Key] = stored
		case OpDel:
			delete(e.items, entry.Key)
		case OpGet:
			// Executed for contract parity; result discarded.
		default:
			return fmt.Errorf("memory: unknown batch op %q", entry.Type)
		}
	}
	return nil
}

// Close releases the map. Safe to call more than once.
func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.items = nil
	return nil
}

// Len returns the number of stored keys. Used by tests and diagnostics.
func (e *MemoryEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}
