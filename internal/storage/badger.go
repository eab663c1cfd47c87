// Package storage provides the Badger-based persistent engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory. Required.
	Dir string

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites enables fsync after each write.
	// Default: true (a closed instance must not lose acknowledged puts)
	SyncWrites bool

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   64 << 20,
		SyncWrites:  true,
	}
}

// BadgerEngine implements Engine on top of Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewBadgerEngine opens (or creates) a persistent engine rooted at cfg.Dir.
func NewBadgerEngine(cfg BadgerConfig) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: cfg.Logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		logger: cfg.Logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	cfg.Logger.Info("badger engine started",
		"dir", cfg.Dir,
		"sync_writes", cfg.SyncWrites,
		"gc_interval", cfg.GCInterval)

	return engine, nil
}

// Get retrieves the stored bytes for a key.
func (e *BadgerEngine) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte

	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, e.normalize(err)
	}

	return value, nil
}

// Put stores a key-value pair.
func (e *BadgerEngine) Put(_ context.Context, key string, value []byte) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	return e.normalize(err)
}

// Del removes a key. A missing key yields ErrKeyNotFound.
func (e *BadgerEngine) Del(_ context.Context, key string) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		return txn.Delete([]byte(key))
	})
	return e.normalize(err)
}

// Batch applies the ordered entries inside a single transaction.
//
// Gets inside a batch are executed but their results discarded; a get on
// a missing key does not abort the batch. Puts and dels are all-or-nothing.
func (e *BadgerEngine) Batch(_ context.Context, entries []BatchEntry) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			switch entry.Type {
			case OpPut:
				if err := txn.Set([]byte(entry.Key), entry.Value); err != nil {
					return err
				}
			case OpDel:
				if err := txn.Delete([]byte(entry.Key)); err != nil {
					return err
				}
			case OpGet:
				if _, err := txn.Get([]byte(entry.Key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			default:
				return fmt.Errorf("badger: unknown batch op %q", entry.Type)
			}
		}
		return nil
	})
	return e.normalize(err)
}

// Close stops background GC and closes the database, flushing pending
// writes. Safe to call more than once.
func (e *BadgerEngine) Close() error {
	e.closeOnce.Do(func() {
		e.logger.Info("shutting down badger engine", "dir", e.cfg.Dir)

		close(e.stopCh)
		<-e.doneCh

		e.closeErr = e.db.Close()
	})
	return e.closeErr
}

// normalize maps badger-internal errors onto the package sentinels.
func (e *BadgerEngine) normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrDBClosed):
		return ErrClosed
	default:
		return err
	}
}

// gcLoop runs periodic value log garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := e.db.RunValueLogGC(e.cfg.GCThreshold)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						e.logger.Error("value log gc failed", "error", err)
					}
					break
				}
			}

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
