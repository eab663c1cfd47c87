// Package storage provides the storage engines for cachemesh.
//
// It defines the Engine capability contract and two implementations:
// a persistent ordered engine backed by Badger and a purely in-memory
// engine. Both satisfy the contract identically so the request layer
// stays engine-agnostic.
package storage

import (
	"context"
	"errors"
)

// Common errors, normalized across engines.
var (
	// ErrKeyNotFound is returned by Get and Del when no entry exists.
	ErrKeyNotFound = errors.New("key not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("storage engine closed")
)

// Batch operation types.
const (
	OpPut = "put"
	OpDel = "del"
	OpGet = "get"
)

// BatchEntry is one sub-operation of a batch, applied in order.
//
// Entries arrive from the wire verbatim; Value is only meaningful for put.
type BatchEntry struct {
	Type  string
	Key   string
	Value []byte
}

// Engine is the capability contract for a single store instance.
//
// Implementations must be safe for concurrent use. Batch applies its
// entries with whatever atomicity the engine provides; neither engine
// adds cross-batch coordination beyond that. Close must be idempotent
// and flush any buffered writes.
type Engine interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Batch(ctx context.Context, entries []BatchEntry) error
	Close() error
}

// ValidBatchEntry reports whether the entry carries a known type and a key.
func ValidBatchEntry(e BatchEntry) bool {
	switch e.Type {
	case OpPut, OpDel, OpGet:
		return e.Key != ""
	default:
		return false
	}
}
