// Package registry owns the named store instances.
//
// Each instance maps one id to exactly one storage engine for the process
// lifetime. The registry is constructed once at startup and handed to the
// request layer; nothing reaches the engines except through Lookup.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
	"github.com/yndnr/cachemesh-go/internal/storage"
	"github.com/yndnr/cachemesh-go/pkg/cmap"
)

// DefaultInstance is the instance id used when a request names none.
const DefaultInstance = "default"

// Options configures a single store instance.
type Options struct {
	// CacheOnDisk selects the persistent engine rooted at CachePath.
	// When false a fresh in-memory engine is constructed.
	CacheOnDisk bool

	// CachePath is the storage directory for the persistent engine.
	CachePath string

	// MaxStoreTime is the configured lifetime ceiling for entries, in
	// milliseconds. It is recorded on the handle but no eviction acts on
	// it; every entry still carries its storeTime stamp.
	MaxStoreTime int64
}

// Handle is one registered instance: an id bound to one engine.
type Handle struct {
	id           string
	engine       storage.Engine
	persistent   bool
	maxStoreTime int64
}

// ID returns the instance id.
func (h *Handle) ID() string { return h.id }

// Engine returns the underlying storage engine.
func (h *Handle) Engine() storage.Engine { return h.engine }

// Persistent reports whether the instance is disk-backed.
func (h *Handle) Persistent() bool { return h.persistent }

// MaxStoreTime returns the configured entry lifetime ceiling, if any.
func (h *Handle) MaxStoreTime() int64 { return h.maxStoreTime }

// Registry owns zero or more named store instances.
type Registry struct {
	handles *cmap.Map[*Handle]
	logger  *slog.Logger

	destroyOnce sync.Once
	destroyErr  error
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handles: cmap.New[*Handle](),
		logger:  logger,
	}
}

// Create registers a new instance under id and constructs its engine.
//
// A duplicate id fails with domain.ErrDuplicateInstance and leaves the
// first registration untouched. Engine construction failures are wrapped
// in domain.ErrStorageError.
func (r *Registry) Create(id string, opts Options) (*Handle, error) {
	if id == "" {
		id = DefaultInstance
	}
	if opts.MaxStoreTime < 0 {
		return nil, domain.ErrInvalidInstanceOptions.WithDetails("maxStoreTime must be non-negative")
	}
	if r.handles.Has(id) {
		return nil, domain.ErrDuplicateInstance.WithDetails(id)
	}

	var (
		engine storage.Engine
		err    error
	)
	if opts.CacheOnDisk {
		if opts.CachePath == "" {
			return nil, domain.ErrInvalidInstanceOptions.WithDetails("cachePath is required when cacheOnDisk is set")
		}
		cfg := storage.DefaultBadgerConfig(opts.CachePath)
		cfg.Logger = r.logger.With("instance", id)
		engine, err = storage.NewBadgerEngine(cfg)
		if err != nil {
			return nil, domain.ErrStorageError.WithCause(err).WithDetails(fmt.Sprintf("open instance %q", id))
		}
	} else {
		engine = storage.NewMemoryEngine()
	}

	handle := &Handle{
		id:           id,
		engine:       engine,
		persistent:   opts.CacheOnDisk,
		maxStoreTime: opts.MaxStoreTime,
	}

	// Engine construction races only with a concurrent Create for the same
	// id; the loser closes its engine and reports the duplicate.
	if !r.handles.SetIfAbsent(id, handle) {
		engine.Close()
		return nil, domain.ErrDuplicateInstance.WithDetails(id)
	}

	r.logger.Info("store instance registered",
		"instance", id,
		"persistent", opts.CacheOnDisk,
		"path", opts.CachePath)

	return handle, nil
}

// Lookup returns the handle for id, or false if none is registered.
func (r *Registry) Lookup(id string) (*Handle, bool) {
	if id == "" {
		id = DefaultInstance
	}
	return r.handles.Get(id)
}

// Instances returns the ids of all registered instances.
func (r *Registry) Instances() []string {
	return r.handles.Keys()
}

// Destroy closes every registered engine, flushing persistent ones to
// stable storage. Idempotent: a second call returns the first result.
func (r *Registry) Destroy() error {
	r.destroyOnce.Do(func() {
		var errs []error
		r.handles.Range(func(id string, h *Handle) bool {
			if err := h.engine.Close(); err != nil {
				r.logger.Error("close store instance failed", "instance", id, "error", err)
				errs = append(errs, fmt.Errorf("close %q: %w", id, err))
			} else {
				r.logger.Info("store instance closed", "instance", id)
			}
			return true
		})
		if len(errs) > 0 {
			r.destroyErr = fmt.Errorf("registry destroy: %w", errs[0])
		}
	})
	return r.destroyErr
}
