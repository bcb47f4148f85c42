package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"planrec/domain/core"
	"planrec/domain/dataset"
	"planrec/internal"
	"planrec/internal/metrics"
	"planrec/ports"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// DefaultRecommendationLimit is how many plans a recommendation returns
const DefaultRecommendationLimit = 3

// Strategy names how a recommendation was produced
type Strategy string

const (
	StrategyCheapest Strategy = "cheapest"
	StrategyNearest  Strategy = "nearest"
)

// Reasons shown next to each strategy
const (
	ReasonCheapest = "No history found - Showing cheapest plans"
	ReasonNearest  = "Similar users liked this"
)

// Profile is the user's current plan profile: the mean position of the
// distinct plans behind their active subscriptions.
type Profile struct {
	AvgPrice     float64 `json:"avg_price"`
	AvgAutoRenew float64 `json:"avg_auto_renew"`
	PlanCount    int     `json:"plan_count"`
}

// ScoredPlan is a recommended plan. Distance is only meaningful for the
// nearest strategy.
type ScoredPlan struct {
	Plan     dataset.PlanRecord
	Distance float64
}

// Recommendation is the successful result of Recommend
type Recommendation struct {
	UserID   string
	Strategy Strategy
	Reason   string
	Profile  *Profile
	Plans    []ScoredPlan
}

// HasDistance reports whether plans carry a nearest-neighbor distance
func (r *Recommendation) HasDistance() bool {
	return r.Strategy == StrategyNearest
}

// RecommendationService selects plans for a user from the published snapshot.
// It holds no per-request state.
type RecommendationService struct {
	snapshots ports.SnapshotReader
	limit     int
	logger    *internal.Logger
}

// NewRecommendationService creates a recommendation service returning at most limit plans
func NewRecommendationService(snapshots ports.SnapshotReader, limit int, logger *internal.Logger) *RecommendationService {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RecommendationService{
		snapshots: snapshots,
		limit:     limit,
		logger:    logger.With("Recommend"),
	}
}

// Recommend computes the plan list for userID. Unknown users yield
// core.ErrUserNotFound; a malformed plan price yields core.ErrPriceUnparseable.
func (s *RecommendationService) Recommend(ctx context.Context, userID string) (*Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := RecommendFor(s.snapshots.Current(), userID, s.limit)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordRecommendation(string(rec.Strategy), "ok", elapsed)
		s.logger.Debug("user %q: %s strategy, %d plans in %s", userID, rec.Strategy, len(rec.Plans), elapsed)
	case errors.Is(err, core.ErrUserNotFound):
		metrics.RecordRecommendation("", "not_found", elapsed)
		s.logger.Debug("user %q not found", userID)
	default:
		metrics.RecordRecommendation("", "error", elapsed)
		s.logger.Error("user %q: %v", userID, err)
	}
	return rec, err
}

// RecommendFor runs the recommendation algorithm against one snapshot.
// A limit below 1 means DefaultRecommendationLimit.
func RecommendFor(snapshot *dataset.Snapshot, userID string, limit int) (*Recommendation, error) {
	if limit < 1 {
		limit = DefaultRecommendationLimit
	}
	if _, ok := snapshot.User(userID); !ok {
		return nil, core.ErrUserNotFound
	}

	plans := snapshot.Plans()
	for _, plan := range plans {
		if err := plan.PriceErr(); err != nil {
			return nil, err
		}
	}

	active := snapshot.ActiveSubscriptionsOf(userID)
	if len(active) == 0 {
		return cheapest(userID, plans, limit), nil
	}
	return nearest(userID, plans, active, limit), nil
}

func cheapest(userID string, plans []dataset.PlanRecord, limit int) *Recommendation {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Price < plans[j].Price
	})

	out := make([]ScoredPlan, 0, min(limit, len(plans)))
	for _, plan := range plans[:min(limit, len(plans))] {
		out = append(out, ScoredPlan{Plan: plan})
	}
	return &Recommendation{
		UserID:   userID,
		Strategy: StrategyCheapest,
		Reason:   ReasonCheapest,
		Plans:    out,
	}
}

func nearest(userID string, plans []dataset.PlanRecord, active []dataset.SubscriptionRecord, limit int) *Recommendation {
	profile := currentProfile(plans, active)
	target := []float64{profile.AvgPrice, profile.AvgAutoRenew}

	scored := make([]ScoredPlan, len(plans))
	for i, plan := range plans {
		point := []float64{plan.Price, plan.AutoRenewIndicator()}
		scored[i] = ScoredPlan{Plan: plan, Distance: floats.Distance(point, target, 2)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	return &Recommendation{
		UserID:   userID,
		Strategy: StrategyNearest,
		Reason:   ReasonNearest,
		Profile:  &profile,
		Plans:    scored[:min(limit, len(scored))],
	}
}

// currentProfile averages the plans held through active subscriptions.
// Each plan row counts once however many active subscriptions reference it.
func currentProfile(plans []dataset.PlanRecord, active []dataset.SubscriptionRecord) Profile {
	held := make(map[string]bool, len(active))
	for _, sub := range active {
		held[sub.ProductID] = true
	}

	var prices, renewals []float64
	for _, plan := range plans {
		if held[plan.ProductID] {
			prices = append(prices, plan.Price)
			renewals = append(renewals, plan.AutoRenewIndicator())
		}
	}

	return Profile{AvgPrice: meanOrZero(prices), AvgAutoRenew: meanOrZero(renewals), PlanCount: len(prices)}
}

// meanOrZero returns 0 for empty input, where stats.Mean reports an error.
func meanOrZero(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}
