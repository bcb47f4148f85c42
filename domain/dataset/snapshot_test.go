package dataset

import (
	"sync"
	"testing"
	"time"

	"planrec/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanRecord(t *testing.T) {
	tests := []struct {
		name      string
		row       Record
		price     float64
		autoRenew bool
		wantErr   bool
	}{
		{"yes", Record{ColProductID: "P1", ColPrice: "9.99", ColAutoRenewal: "Yes"}, 9.99, true, false},
		{"lower case yes", Record{ColProductID: "P1", ColPrice: "10", ColAutoRenewal: "yes"}, 10, true, false},
		{"no", Record{ColProductID: "P1", ColPrice: " 3 ", ColAutoRenewal: "No"}, 3, false, false},
		{"blank renewal", Record{ColProductID: "P1", ColPrice: "0", ColAutoRenewal: ""}, 0, false, false},
		{"text price", Record{ColProductID: "P1", ColPrice: "free", ColAutoRenewal: "Yes"}, 0, true, true},
		{"empty price", Record{ColProductID: "P1", ColPrice: "", ColAutoRenewal: "Yes"}, 0, true, true},
		{"negative price", Record{ColProductID: "P1", ColPrice: "-4", ColAutoRenewal: "Yes"}, -4, true, false},
		{"infinite price", Record{ColProductID: "P1", ColPrice: "+Inf", ColAutoRenewal: "Yes"}, 0, true, true},
		{"nan price", Record{ColProductID: "P1", ColPrice: "NaN", ColAutoRenewal: "Yes"}, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanRecord(tt.row, 4)
			assert.Equal(t, "P1", p.ProductID)
			assert.Equal(t, 4, p.Index)
			assert.Equal(t, tt.autoRenew, p.AutoRenew)
			if tt.wantErr {
				assert.ErrorIs(t, p.PriceErr(), core.ErrPriceUnparseable)
				return
			}
			require.NoError(t, p.PriceErr())
			assert.Equal(t, tt.price, p.Price)
		})
	}
}

func TestNewSubscriptionRecordNormalizesStatus(t *testing.T) {
	for status, active := range map[string]bool{
		"active": true, "ACTIVE": true, "Active": true,
		"inactive": false, "cancelled": false, "": false, " active": false,
	} {
		s := NewSubscriptionRecord(Record{ColStatus: status})
		assert.Equal(t, active, s.Active, "status %q", status)
		assert.Equal(t, status, s.Status)
	}
}

func sampleSheets() Sheets {
	return Sheets{
		Users: &Sheet{
			Headers: []string{ColUserID, "Name"},
			Rows: []Record{
				{ColUserID: "U1", "Name": "Ada"},
				{ColUserID: "U2", "Name": "Grace"},
				{ColUserID: "U1", "Name": "Duplicate"},
			},
		},
		Subscriptions: &Sheet{
			Headers: []string{ColUserID, ColProductID, ColStatus},
			Rows: []Record{
				{ColUserID: "U1", ColProductID: "P1", ColStatus: "active"},
				{ColUserID: "U1", ColProductID: "P2", ColStatus: "expired"},
				{ColUserID: "U2", ColProductID: "P2", ColStatus: "Active"},
			},
		},
		Plans: &Sheet{
			Headers: []string{ColProductID, ColPrice},
			Rows: []Record{
				{ColProductID: "P1", ColPrice: "10"},
				{ColProductID: "P2", ColPrice: "x"},
			},
		},
		Logs:    &Sheet{Headers: []string{"event"}, Rows: []Record{{"event": "created"}}},
		Billing: nil,
	}
}

func TestNewSnapshotIndexes(t *testing.T) {
	loadedAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	snap := NewSnapshot(sampleSheets(), "book.xlsx", loadedAt)

	user, ok := snap.User("U1")
	require.True(t, ok)
	assert.Equal(t, "Ada", user.Fields["Name"], "first occurrence wins")

	_, ok = snap.User("u1")
	assert.False(t, ok, "lookup is case sensitive")

	assert.Len(t, snap.SubscriptionsOf("U1"), 2)
	active := snap.ActiveSubscriptionsOf("U1")
	require.Len(t, active, 1)
	assert.Equal(t, "P1", active[0].ProductID)
	assert.Empty(t, snap.ActiveSubscriptionsOf("nobody"))

	assert.Equal(t, map[string]int{
		SheetUsers: 3, SheetSubscriptions: 3, SheetPlans: 2, SheetLogs: 1, SheetBilling: 0,
	}, snap.Counts())
	assert.Equal(t, "book.xlsx", snap.Source())
	assert.Equal(t, loadedAt, snap.LoadedAt())
}

func TestNewSnapshotWarnings(t *testing.T) {
	snap := NewSnapshot(sampleSheets(), "book.xlsx", time.Now())

	warnings := snap.Warnings()
	assert.Contains(t, warnings, `Subscription_Plans: missing column "Auto Renewal Allowed"`)
	assert.Contains(t, warnings, `User_Data: duplicate User Id "U1", first row wins`)

	found := false
	for _, w := range warnings {
		if w == `Subscription_Plans: plan price is not a number: product "P2" has price "x"` {
			found = true
		}
	}
	assert.True(t, found, "malformed price reported: %v", warnings)
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	snap := NewSnapshot(sampleSheets(), "book.xlsx", time.Now())

	plans := snap.Plans()
	plans[0].ProductID = "changed"
	assert.Equal(t, "P1", snap.Plans()[0].ProductID)

	users := snap.Users()
	users[0] = UserRecord{}
	assert.Equal(t, "U1", snap.Users()[0].UserID)
}

func TestStoreSwapIsAtomicForReaders(t *testing.T) {
	first := NewSnapshot(sampleSheets(), "first", time.Now())
	second := NewSnapshot(sampleSheets(), "second", time.Now())
	store := NewStore(first)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				src := store.Current().Source()
				if src != "first" && src != "second" {
					t.Errorf("unexpected snapshot %q", src)
					return
				}
			}
		}()
	}

	previous := store.Swap(second)
	wg.Wait()

	assert.Same(t, first, previous)
	assert.Same(t, second, store.Current())
}

func TestLogsOfJoinsThroughSubscriptionID(t *testing.T) {
	snap := NewSnapshot(Sheets{
		Users: &Sheet{Headers: []string{ColUserID}, Rows: []Record{{ColUserID: "U1"}, {ColUserID: "U2"}}},
		Subscriptions: &Sheet{
			Headers: []string{ColSubscriptionID, ColUserID, ColProductID, ColStatus},
			Rows: []Record{
				{ColSubscriptionID: "S1", ColUserID: "U1", ColProductID: "P1", ColStatus: "active"},
				{ColSubscriptionID: "S2", ColUserID: "U2", ColProductID: "P1", ColStatus: "active"},
				{ColSubscriptionID: "", ColUserID: "U2", ColProductID: "P2", ColStatus: "active"},
			},
		},
		Logs: &Sheet{
			Headers: []string{ColSubscriptionID, "action"},
			Rows: []Record{
				{ColSubscriptionID: "S1", "action": "created"},
				{ColSubscriptionID: "S2", "action": "created"},
				{ColSubscriptionID: "", "action": "orphan"},
				{ColSubscriptionID: "S1", "action": "renewed"},
			},
		},
	}, "book.xlsx", time.Now())

	assert.Equal(t, []Record{
		{ColSubscriptionID: "S1", "action": "created"},
		{ColSubscriptionID: "S1", "action": "renewed"},
	}, snap.LogsOf("U1"))
	assert.Len(t, snap.LogsOf("U2"), 1, "subscriptions without an id match nothing")
	assert.Empty(t, snap.LogsOf("nobody"))
}
