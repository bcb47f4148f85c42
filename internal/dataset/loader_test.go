package dataset

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"planrec/adapters/excel"
	"planrec/domain/core"
	domainDataset "planrec/domain/dataset"
	"planrec/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSheetLoader is a testify mock of ports.SheetLoader
type MockSheetLoader struct {
	mock.Mock
}

func (m *MockSheetLoader) LoadSheet(path, sheetName string) (*domainDataset.Sheet, error) {
	args := m.Called(path, sheetName)
	sheet, _ := args.Get(0).(*domainDataset.Sheet)
	return sheet, args.Error(1)
}

func testSheets() map[string]*domainDataset.Sheet {
	return map[string]*domainDataset.Sheet{
		domainDataset.SheetUsers: {
			Name:    domainDataset.SheetUsers,
			Headers: []string{"User Id", "Name"},
			Rows:    []domainDataset.Record{{"User Id": "U1", "Name": "Ada"}},
		},
		domainDataset.SheetSubscriptions: {
			Name:    domainDataset.SheetSubscriptions,
			Headers: []string{"User Id", "Product Id", "Status"},
			Rows:    []domainDataset.Record{{"User Id": "U1", "Product Id": "P1", "Status": "active"}},
		},
		domainDataset.SheetPlans: {
			Name:    domainDataset.SheetPlans,
			Headers: []string{"Product Id", "Price", "Auto Renewal Allowed"},
			Rows: []domainDataset.Record{
				{"Product Id": "P1", "Price": "10", "Auto Renewal Allowed": "Yes"},
				{"Product Id": "P2", "Price": "abc", "Auto Renewal Allowed": "No"},
			},
		},
		domainDataset.SheetLogs:    {Name: domainDataset.SheetLogs, Headers: []string{"log"}},
		domainDataset.SheetBilling: {Name: domainDataset.SheetBilling, Headers: []string{"amount"}},
	}
}

func newMockLoader(sheets map[string]*domainDataset.Sheet) *MockSheetLoader {
	m := &MockSheetLoader{}
	for name, sheet := range sheets {
		m.On("LoadSheet", "book.xlsx", name).Return(sheet, nil)
	}
	return m
}

func testConfig() excel.WorkbookConfig {
	cfg := excel.DefaultWorkbookConfig()
	cfg.FilePath = "book.xlsx"
	return cfg
}

func TestLoaderBuildsSnapshot(t *testing.T) {
	sheets := newMockLoader(testSheets())
	loader := NewLoader(sheets, testConfig(), internal.Discard())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	loader.now = func() time.Time { return fixed }

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)

	sheets.AssertNumberOfCalls(t, "LoadSheet", 5)
	assert.Equal(t, "book.xlsx", snapshot.Source())
	assert.Equal(t, fixed, snapshot.LoadedAt())
	assert.Equal(t, 1, snapshot.Counts()[domainDataset.SheetUsers])
	assert.Equal(t, 2, snapshot.Counts()[domainDataset.SheetPlans])

	_, ok := snapshot.User("U1")
	assert.True(t, ok)
	assert.Len(t, snapshot.Warnings(), 1, "the malformed price is reported, not fatal")
}

func TestLoaderPropagatesSheetErrors(t *testing.T) {
	sheets := testSheets()
	m := &MockSheetLoader{}
	for name, sheet := range sheets {
		if name == domainDataset.SheetBilling {
			m.On("LoadSheet", "book.xlsx", name).
				Return(nil, core.NewSheetNotFoundError("book.xlsx", name))
			continue
		}
		m.On("LoadSheet", "book.xlsx", name).Return(sheet, nil).Maybe()
	}

	_, err := NewLoader(m, testConfig(), internal.Discard()).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSheetNotFound)
	assert.Contains(t, err.Error(), domainDataset.SheetBilling)
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	m := &MockSheetLoader{}
	m.On("LoadSheet", mock.Anything, mock.Anything).Return(&domainDataset.Sheet{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(m, testConfig(), internal.Discard()).Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoaderStopsWaitingAtDeadline(t *testing.T) {
	m := &MockSheetLoader{}
	m.On("LoadSheet", mock.Anything, mock.Anything).
		Return(&domainDataset.Sheet{}, nil).
		After(300 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	snapshot, err := NewLoader(m, testConfig(), internal.Discard()).Load(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, snapshot)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestLoaderBoundsConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.Concurrency = 2

	var mu sync.Mutex
	inFlight, peak := 0, 0
	m := &MockSheetLoader{}
	for name, sheet := range testSheets() {
		m.On("LoadSheet", "book.xlsx", name).Return(sheet, nil).Run(func(mock.Arguments) {
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
		})
	}

	_, err := NewLoader(m, cfg, internal.Discard()).Load(context.Background())
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "LoadSheet", 5)
	assert.LessOrEqual(t, peak, 2)
}

func TestReloaderSwapsOnSuccessOnly(t *testing.T) {
	good := newMockLoader(testSheets())
	loader := NewLoader(good, testConfig(), internal.Discard())

	store, err := LoadInitial(context.Background(), loader)
	require.NoError(t, err)
	first := store.Current()

	reloader := NewReloader(loader, store, internal.Discard())
	second, err := reloader.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, store.Current())
	assert.NotSame(t, first, store.Current())

	failing := &MockSheetLoader{}
	failing.On("LoadSheet", mock.Anything, mock.Anything).
		Return(nil, core.NewSourceUnavailableError("book.xlsx", fmt.Errorf("gone")))
	broken := NewReloader(NewLoader(failing, testConfig(), internal.Discard()), store, internal.Discard())

	_, err = broken.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	assert.Same(t, second, store.Current(), "failed reload keeps the published snapshot")
}

func TestReloaderNotifiesListeners(t *testing.T) {
	loader := NewLoader(newMockLoader(testSheets()), testConfig(), internal.Discard())
	store, err := LoadInitial(context.Background(), loader)
	require.NoError(t, err)

	var got []error
	var snaps []*domainDataset.Snapshot
	reloader := NewReloader(loader, store, internal.Discard())
	reloader.OnReload(func(snap *domainDataset.Snapshot, err error) {
		snaps = append(snaps, snap)
		got = append(got, err)
	})

	next, err := reloader.Reload(context.Background())
	require.NoError(t, err)

	failing := &MockSheetLoader{}
	failing.On("LoadSheet", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("locked"))
	reloader.loader = NewLoader(failing, testConfig(), internal.Discard())
	_, err = reloader.Reload(context.Background())
	require.Error(t, err)

	require.Len(t, got, 2)
	assert.NoError(t, got[0])
	assert.Same(t, next, snaps[0])
	assert.Error(t, got[1])
	assert.Nil(t, snaps[1])
}
