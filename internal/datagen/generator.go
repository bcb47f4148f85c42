package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"planrec/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// Workbook is a synthetic subscription dataset, one SheetData per sheet in
// the order they are written.
type Workbook struct {
	Sheets []SheetData
}

// SheetData is a header row plus typed cell values. Prices and amounts are
// float64 so the file carries numeric cells, the same way a spreadsheet
// export would.
type SheetData struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Sheet returns the named sheet, or nil.
func (w *Workbook) Sheet(name string) *SheetData {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i]
		}
	}
	return nil
}

type Config struct {
	Users     int
	Plans     int
	Seed      int64
	StartDate time.Time

	// Share of users that hold at least one subscription
	SubscribedRatio float64
	// Upper bound on subscriptions per subscribed user
	MaxSubscriptions int
	// Months of billing history per subscription
	BillingMonths int
}

func DefaultConfig() Config {
	return Config{
		Users:            50,
		Plans:            8,
		Seed:             42,
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SubscribedRatio:  0.7,
		MaxSubscriptions: 3,
		BillingMonths:    6,
	}
}

var (
	planTiers   = []string{"Basic", "Standard", "Plus", "Premium", "Family", "Student", "Business", "Enterprise"}
	firstNames  = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Ken", "Radia", "Linus", "Margaret", "Dennis"}
	lastNames   = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Thompson", "Perlman", "Torvalds", "Hamilton", "Ritchie"}
	payStatuses = []string{"paid", "paid", "paid", "failed", "pending"}
)

// Generate builds a deterministic workbook for cfg.Seed.
func Generate(cfg Config) (*Workbook, error) {
	if cfg.Users <= 0 {
		return nil, fmt.Errorf("users must be > 0")
	}
	if cfg.Plans <= 0 {
		return nil, fmt.Errorf("plans must be > 0")
	}
	if cfg.SubscribedRatio < 0 || cfg.SubscribedRatio > 1 {
		return nil, fmt.Errorf("subscribed ratio must be within [0, 1]")
	}
	if cfg.MaxSubscriptions <= 0 {
		cfg.MaxSubscriptions = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	plans := SheetData{
		Name:    dataset.SheetPlans,
		Headers: []string{dataset.ColProductID, "Name", dataset.ColPrice, dataset.ColAutoRenewal, "Status"},
	}
	productIDs := make([]string, cfg.Plans)
	for i := 0; i < cfg.Plans; i++ {
		productIDs[i] = fmt.Sprintf("P%02d", i+1)
		price := round(4.99+rng.Float64()*45, 2)
		autoRenew := "No"
		if rng.Float64() < 0.6 {
			autoRenew = "Yes"
		}
		plans.Rows = append(plans.Rows, []interface{}{
			productIDs[i], planTiers[i%len(planTiers)], price, autoRenew, "Active",
		})
	}

	users := SheetData{
		Name:    dataset.SheetUsers,
		Headers: []string{dataset.ColUserID, "Name", "Email", "Phone", "Status"},
	}
	subs := SheetData{
		Name:    dataset.SheetSubscriptions,
		Headers: []string{dataset.ColSubscriptionID, dataset.ColUserID, dataset.ColProductID, dataset.ColStatus, "Start Date", "Auto Renewal"},
	}
	logs := SheetData{
		Name:    dataset.SheetLogs,
		Headers: []string{"Subscription Id", "action", "action_date", "old_status", "new_status"},
	}
	billing := SheetData{
		Name:    dataset.SheetBilling,
		Headers: []string{"billing_id", dataset.ColBillingSubscriptionID, dataset.ColBillingAmount, "billing_date", dataset.ColBillingPaymentStatus},
	}

	subSeq, billSeq := 0, 0
	for u := 0; u < cfg.Users; u++ {
		userID := fmt.Sprintf("U%03d", u+1)
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		users.Rows = append(users.Rows, []interface{}{
			userID,
			first + " " + last,
			fmt.Sprintf("%s.%s%d@example.com", first, last, u+1),
			fmt.Sprintf("555-%04d", rng.Intn(10000)),
			"active",
		})

		if rng.Float64() >= cfg.SubscribedRatio {
			continue
		}

		for n := 1 + rng.Intn(cfg.MaxSubscriptions); n > 0; n-- {
			subSeq++
			subID := fmt.Sprintf("S%04d", subSeq)
			plan := rng.Intn(cfg.Plans)
			status := "active"
			if rng.Float64() < 0.3 {
				status = "inactive"
			}
			start := cfg.StartDate.AddDate(0, 0, rng.Intn(180))
			subs.Rows = append(subs.Rows, []interface{}{
				subID, userID, productIDs[plan], status, start.Format("2006-01-02"), plans.Rows[plan][3],
			})

			logs.Rows = append(logs.Rows, []interface{}{subID, "created", start.Format("2006-01-02"), "", "active"})
			if status == "inactive" {
				cancelled := start.AddDate(0, 1+rng.Intn(cfg.BillingMonths+1), 0)
				logs.Rows = append(logs.Rows, []interface{}{subID, "cancelled", cancelled.Format("2006-01-02"), "active", "inactive"})
			}

			price := plans.Rows[plan][2].(float64)
			for m := 0; m < cfg.BillingMonths; m++ {
				billSeq++
				billing.Rows = append(billing.Rows, []interface{}{
					fmt.Sprintf("B%05d", billSeq),
					subID,
					price,
					start.AddDate(0, m, 0).Format("2006-01-02"),
					payStatuses[rng.Intn(len(payStatuses))],
				})
			}
		}
	}

	return &Workbook{Sheets: []SheetData{users, subs, plans, logs, billing}}, nil
}

// WriteXLSX saves the workbook with one worksheet per sheet, headers in row 1.
func WriteXLSX(path string, wb *Workbook) error {
	if len(wb.Sheets) == 0 {
		return fmt.Errorf("workbook has no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default "Sheet1" becomes the first sheet.
	if err := f.SetSheetName("Sheet1", wb.Sheets[0].Name); err != nil {
		return err
	}
	for _, sheet := range wb.Sheets[1:] {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}
	}

	for _, sheet := range wb.Sheets {
		if err := writeSheet(f, sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet SheetData) error {
	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}

	for r, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
