// Package dataset loads the subscription workbook into a typed snapshot and
// keeps the published snapshot current across reloads.
package dataset

import (
	"context"
	"sync"
	"time"

	"planrec/adapters/excel"
	"planrec/domain/dataset"
	"planrec/internal"
	"planrec/internal/errors"
	"planrec/ports"

	"golang.org/x/sync/semaphore"
)

// Loader reads all five sheets of a workbook and builds a Snapshot
type Loader struct {
	sheets ports.SheetLoader
	config excel.WorkbookConfig
	logger *internal.Logger
	now    func() time.Time
}

// NewLoader creates a workbook loader
func NewLoader(sheets ports.SheetLoader, config excel.WorkbookConfig, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Loader{
		sheets: sheets,
		config: config,
		logger: logger.With("DatasetLoader"),
		now:    time.Now,
	}
}

// Load reads every sheet concurrently, at most Concurrency at a time. Any
// sheet failing aborts the load; the error keeps the source/sheet sentinel so
// callers can classify it. Load returns as soon as ctx ends even if a sheet
// read is still in flight.
func (l *Loader) Load(ctx context.Context) (*dataset.Snapshot, error) {
	startTime := time.Now()
	names := l.config.Sheets.All()
	results := make([]*dataset.Sheet, len(names))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(l.config.Concurrency))
	errCh := make(chan error, len(names)+1)
	var wg sync.WaitGroup

	for i, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			errCh <- err
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			sheet, err := l.loadSheet(ctx, name)
			if err != nil {
				errCh <- err
				cancel()
				return
			}
			results[i] = sheet
		}()
	}

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	snapshot := dataset.NewSnapshot(dataset.Sheets{
		Users:         results[0],
		Subscriptions: results[1],
		Plans:         results[2],
		Logs:          results[3],
		Billing:       results[4],
	}, l.config.FilePath, l.now())

	for _, warning := range snapshot.Warnings() {
		l.logger.Warn("%s", warning)
	}
	l.logger.Info("loaded %s in %s: %v", l.config.FilePath, time.Since(startTime).Round(time.Millisecond), snapshot.Counts())

	return snapshot, nil
}

// loadSheet reads one sheet, giving up when ctx ends. The underlying read
// cannot be interrupted; it finishes in the background and its result is dropped.
func (l *Loader) loadSheet(ctx context.Context, name string) (*dataset.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		sheet *dataset.Sheet
		err   error
	}
	done := make(chan result, 1)
	go func() {
		sheet, err := l.sheets.LoadSheet(l.config.FilePath, name)
		done <- result{sheet, err}
	}()

	select {
	case <-ctx.Done():
		l.logger.Debug("gave up on sheet %s: %v", name, ctx.Err())
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, errors.DatasetLoad("failed to load sheet "+name, r.err)
		}
		return r.sheet, nil
	}
}
