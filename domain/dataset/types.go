package dataset

import (
	"math"
	"strconv"
	"strings"

	"planrec/domain/core"
)

// Sheet names of the subscription workbook
const (
	SheetUsers         = "User_Data"
	SheetSubscriptions = "Subscriptions"
	SheetPlans         = "Subscription_Plans"
	SheetLogs          = "Subscription_Logs"
	SheetBilling       = "Billing_Information"
)

// Column names consumed by the engine and the billing summary
const (
	ColUserID         = "User Id"
	ColProductID      = "Product Id"
	ColStatus         = "Status"
	ColPrice          = "Price"
	ColAutoRenewal    = "Auto Renewal Allowed"
	ColSubscriptionID = "Subscription Id"

	ColBillingSubscriptionID = "subscription_id"
	ColBillingAmount         = "amount"
	ColBillingPaymentStatus  = "payment_status"
)

// Record is one data row of a sheet keyed by header name.
// Every header of the sheet is present; missing cells hold "".
type Record map[string]string

// Get returns the value of column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return r[column]
}

// Sheet is the loader output: headers in file order and rows in file order.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Record
}

// UserRecord is a row of User_Data.
type UserRecord struct {
	UserID string
	Fields Record
}

// PlanRecord is a row of Subscription_Plans with its numeric and boolean
// columns parsed once at load time.
type PlanRecord struct {
	ProductID string
	Price     float64
	PriceRaw  string
	AutoRenew bool
	// Index is the position of the plan in the sheet, used for stable ordering.
	Index  int
	Fields Record

	priceErr error
}

// PriceErr reports why Price could not be parsed, or nil.
func (p PlanRecord) PriceErr() error {
	return p.priceErr
}

// AutoRenewIndicator maps the auto-renew flag onto the 0/1 feature axis.
func (p PlanRecord) AutoRenewIndicator() float64 {
	if p.AutoRenew {
		return 1
	}
	return 0
}

// SubscriptionRecord is a row of Subscriptions.
type SubscriptionRecord struct {
	SubscriptionID string
	UserID         string
	ProductID      string
	Status         string
	Active         bool
	Fields         Record
}

// NewUserRecord builds a UserRecord from a raw row.
func NewUserRecord(row Record) UserRecord {
	return UserRecord{UserID: row.Get(ColUserID), Fields: row}
}

// NewPlanRecord builds a PlanRecord from a raw row at position index.
// A malformed price is kept on the record rather than failing the load.
func NewPlanRecord(row Record, index int) PlanRecord {
	plan := PlanRecord{
		ProductID: row.Get(ColProductID),
		PriceRaw:  row.Get(ColPrice),
		AutoRenew: IsYes(row.Get(ColAutoRenewal)),
		Index:     index,
		Fields:    row,
	}
	price, err := ParsePrice(plan.PriceRaw)
	if err != nil {
		plan.priceErr = core.NewPriceError(plan.ProductID, plan.PriceRaw)
	} else {
		plan.Price = price
	}
	return plan
}

// NewSubscriptionRecord builds a SubscriptionRecord from a raw row.
func NewSubscriptionRecord(row Record) SubscriptionRecord {
	status := row.Get(ColStatus)
	return SubscriptionRecord{
		SubscriptionID: row.Get(ColSubscriptionID),
		UserID:         row.Get(ColUserID),
		ProductID:      row.Get(ColProductID),
		Status:         status,
		Active:         IsActive(status),
		Fields:         row,
	}
}

// IsYes reports whether a boolean-like cell says "Yes", ignoring case.
func IsYes(value string) bool {
	return strings.EqualFold(value, "Yes")
}

// IsActive reports whether a subscription status is "active", ignoring case.
func IsActive(status string) bool {
	return strings.EqualFold(status, "active")
}

// ParsePrice parses a price cell. Any finite number is accepted, negative
// included; NaN and infinities are rejected.
func ParsePrice(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}
