package dataset

import (
	"fmt"
	"time"
)

// Sheets groups the five loaded sheets of a subscription workbook.
type Sheets struct {
	Users         *Sheet
	Subscriptions *Sheet
	Plans         *Sheet
	Logs          *Sheet
	Billing       *Sheet
}

// Snapshot is the immutable, typed view of one loaded workbook.
// Nothing mutates a Snapshot after NewSnapshot returns, so it is safe for
// concurrent readers without locking.
type Snapshot struct {
	users         []UserRecord
	subscriptions []SubscriptionRecord
	plans         []PlanRecord
	logs          []Record
	billing       []Record

	usersByID  map[string]int
	subsByUser map[string][]int

	source   string
	loadedAt time.Time
	warnings []string
}

// NewSnapshot types the raw sheets and builds lookup indexes.
// A nil sheet is treated as empty.
func NewSnapshot(sheets Sheets, source string, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		usersByID:  make(map[string]int),
		subsByUser: make(map[string][]int),
		source:     source,
		loadedAt:   loadedAt,
	}

	s.warnings = append(s.warnings, missingColumns(sheets.Users, SheetUsers, ColUserID)...)
	s.warnings = append(s.warnings, missingColumns(sheets.Subscriptions, SheetSubscriptions, ColUserID, ColProductID, ColStatus)...)
	s.warnings = append(s.warnings, missingColumns(sheets.Plans, SheetPlans, ColProductID, ColPrice, ColAutoRenewal)...)

	for _, row := range rowsOf(sheets.Users) {
		user := NewUserRecord(row)
		if _, dup := s.usersByID[user.UserID]; dup {
			s.warnings = append(s.warnings, fmt.Sprintf("%s: duplicate %s %q, first row wins", SheetUsers, ColUserID, user.UserID))
		} else {
			s.usersByID[user.UserID] = len(s.users)
		}
		s.users = append(s.users, user)
	}

	for _, row := range rowsOf(sheets.Subscriptions) {
		sub := NewSubscriptionRecord(row)
		s.subsByUser[sub.UserID] = append(s.subsByUser[sub.UserID], len(s.subscriptions))
		s.subscriptions = append(s.subscriptions, sub)
	}

	for i, row := range rowsOf(sheets.Plans) {
		plan := NewPlanRecord(row, i)
		if err := plan.PriceErr(); err != nil {
			s.warnings = append(s.warnings, fmt.Sprintf("%s: %v", SheetPlans, err))
		}
		s.plans = append(s.plans, plan)
	}

	s.logs = rowsOf(sheets.Logs)
	s.billing = rowsOf(sheets.Billing)

	return s
}

func rowsOf(sheet *Sheet) []Record {
	if sheet == nil {
		return nil
	}
	return sheet.Rows
}

func missingColumns(sheet *Sheet, name string, required ...string) []string {
	present := make(map[string]bool)
	if sheet != nil {
		for _, h := range sheet.Headers {
			present[h] = true
		}
	}
	var warnings []string
	for _, col := range required {
		if !present[col] {
			warnings = append(warnings, fmt.Sprintf("%s: missing column %q", name, col))
		}
	}
	return warnings
}

// User looks up a user by exact, case-sensitive id.
func (s *Snapshot) User(userID string) (UserRecord, bool) {
	idx, ok := s.usersByID[userID]
	if !ok {
		return UserRecord{}, false
	}
	return s.users[idx], true
}

// SubscriptionsOf returns every subscription of a user in dataset order.
func (s *Snapshot) SubscriptionsOf(userID string) []SubscriptionRecord {
	indexes := s.subsByUser[userID]
	out := make([]SubscriptionRecord, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, s.subscriptions[idx])
	}
	return out
}

// ActiveSubscriptionsOf returns the user's active subscriptions in dataset order.
func (s *Snapshot) ActiveSubscriptionsOf(userID string) []SubscriptionRecord {
	var out []SubscriptionRecord
	for _, idx := range s.subsByUser[userID] {
		if s.subscriptions[idx].Active {
			out = append(out, s.subscriptions[idx])
		}
	}
	return out
}

// Plans returns a copy of all plans in dataset order.
func (s *Snapshot) Plans() []PlanRecord {
	return append([]PlanRecord(nil), s.plans...)
}

// Users returns a copy of all users in dataset order.
func (s *Snapshot) Users() []UserRecord {
	return append([]UserRecord(nil), s.users...)
}

// LogsOf returns the Subscription_Logs rows of userID's subscriptions, in sheet order.
func (s *Snapshot) LogsOf(userID string) []Record {
	owned := make(map[string]bool)
	for _, sub := range s.SubscriptionsOf(userID) {
		if sub.SubscriptionID != "" {
			owned[sub.SubscriptionID] = true
		}
	}
	var out []Record
	for _, row := range s.logs {
		if owned[row.Get(ColSubscriptionID)] {
			out = append(out, row)
		}
	}
	return out
}

// Billing returns the passthrough Billing_Information rows.
func (s *Snapshot) Billing() []Record {
	return append([]Record(nil), s.billing...)
}

// Counts reports the row count of each collection keyed by sheet name.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		SheetUsers:         len(s.users),
		SheetSubscriptions: len(s.subscriptions),
		SheetPlans:         len(s.plans),
		SheetLogs:          len(s.logs),
		SheetBilling:       len(s.billing),
	}
}

// Source names the workbook the snapshot was loaded from.
func (s *Snapshot) Source() string { return s.source }

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Warnings lists data problems found while typing the sheets.
func (s *Snapshot) Warnings() []string {
	return append([]string(nil), s.warnings...)
}
