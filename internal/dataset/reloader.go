package dataset

import (
	"context"
	"sync"
	"time"

	"planrec/domain/dataset"
	"planrec/internal"
	"planrec/internal/metrics"
)

// Reloader builds a fresh snapshot and publishes it on the store.
// A failed reload leaves the published snapshot untouched.
type Reloader struct {
	loader *Loader
	store  *dataset.Store
	logger *internal.Logger
	mu     sync.Mutex

	listeners []func(*dataset.Snapshot, error)
}

// NewReloader creates a reloader publishing on store
func NewReloader(loader *Loader, store *dataset.Store, logger *internal.Logger) *Reloader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reloader{loader: loader, store: store, logger: logger.With("Reloader")}
}

// OnReload registers fn to run after every reload attempt, with either the
// new snapshot or the error. Register listeners before serving.
func (r *Reloader) OnReload(fn func(*dataset.Snapshot, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Reloader) notify(snapshot *dataset.Snapshot, err error) {
	for _, fn := range r.listeners {
		fn(snapshot, err)
	}
}

// LoadInitial performs the startup load and returns the store publishing it
func LoadInitial(ctx context.Context, loader *Loader) (*dataset.Store, error) {
	snapshot, err := loader.Load(ctx)
	if err != nil {
		metrics.RecordDatasetLoad(nil, time.Time{}, err)
		return nil, err
	}
	metrics.RecordDatasetLoad(snapshot.Counts(), snapshot.LoadedAt(), nil)
	return dataset.NewStore(snapshot), nil
}

// Reload loads the workbook again and swaps it in. Concurrent calls are serialized.
func (r *Reloader) Reload(ctx context.Context) (*dataset.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot, err := r.loader.Load(ctx)
	if err != nil {
		r.logger.Error("reload failed, keeping current snapshot: %v", err)
		metrics.RecordDatasetLoad(nil, time.Time{}, err)
		r.notify(nil, err)
		return nil, err
	}

	previous := r.store.Swap(snapshot)
	metrics.RecordDatasetLoad(snapshot.Counts(), snapshot.LoadedAt(), nil)
	if previous != nil {
		r.logger.Info("snapshot replaced (previous loaded at %s)", previous.LoadedAt().Format(time.RFC3339))
	}
	r.notify(snapshot, nil)
	return snapshot, nil
}
