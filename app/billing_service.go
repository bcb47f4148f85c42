package app

import (
	"context"
	"strconv"
	"strings"

	"planrec/domain/core"
	"planrec/domain/dataset"
	"planrec/ports"

	"github.com/montanaflynn/stats"
)

// BillingSummary aggregates the Billing_Information rows behind a user's subscriptions
type BillingSummary struct {
	UserID         string  `json:"user_id"`
	Subscriptions  int     `json:"subscriptions"`
	Payments       int     `json:"payments"`
	TotalBilled    float64 `json:"total_billed"`
	AverageBilled  float64 `json:"avg_billed"`
	FailedPayments int     `json:"failed_payments"`
	InvalidAmounts int     `json:"invalid_amounts"`
}

// BillingService summarizes billing history. The recommendation engine does not use it.
type BillingService struct {
	snapshots ports.SnapshotReader
}

// NewBillingService creates a billing service
func NewBillingService(snapshots ports.SnapshotReader) *BillingService {
	return &BillingService{snapshots: snapshots}
}

// Summarize aggregates billing rows for every subscription of userID, whatever its status
func (s *BillingService) Summarize(ctx context.Context, userID string) (*BillingSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SummarizeBilling(s.snapshots.Current(), userID)
}

// SummarizeBilling computes the billing summary against one snapshot.
// Rows whose amount is not numeric are counted in InvalidAmounts and left out of the sums.
func SummarizeBilling(snapshot *dataset.Snapshot, userID string) (*BillingSummary, error) {
	if _, ok := snapshot.User(userID); !ok {
		return nil, core.ErrUserNotFound
	}

	subs := snapshot.SubscriptionsOf(userID)
	owned := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if sub.SubscriptionID != "" {
			owned[sub.SubscriptionID] = true
		}
	}

	summary := &BillingSummary{UserID: userID, Subscriptions: len(subs)}
	var amounts []float64
	for _, row := range snapshot.Billing() {
		if !owned[row.Get(dataset.ColBillingSubscriptionID)] {
			continue
		}
		summary.Payments++
		if !strings.EqualFold(strings.TrimSpace(row.Get(dataset.ColBillingPaymentStatus)), "paid") {
			summary.FailedPayments++
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row.Get(dataset.ColBillingAmount)), 64)
		if err != nil {
			summary.InvalidAmounts++
			continue
		}
		amounts = append(amounts, amount)
	}

	if len(amounts) > 0 {
		summary.TotalBilled, _ = stats.Sum(amounts)
		summary.AverageBilled = meanOrZero(amounts)
	}
	return summary, nil
}
