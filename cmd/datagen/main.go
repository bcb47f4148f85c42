package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"planrec/internal/datagen"
)

func main() {
	out := flag.String("out", "SubscriptionUseCase_Dataset.xlsx", "output file path")
	users := flag.Int("users", 50, "number of users")
	plans := flag.Int("plans", 8, "number of subscription plans")
	ratio := flag.Float64("subscribed", 0.7, "share of users holding a subscription")
	months := flag.Int("months", 6, "billing months per subscription")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "start date (YYYY-MM-DD)")
	flag.Parse()

	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	cfg := datagen.DefaultConfig()
	cfg.Users = *users
	cfg.Plans = *plans
	cfg.SubscribedRatio = *ratio
	cfg.BillingMonths = *months
	cfg.Seed = *seed
	cfg.StartDate = startDate

	wb, err := datagen.Generate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating dataset:", err)
		os.Exit(2)
	}

	if err := datagen.WriteXLSX(*out, wb); err != nil {
		fmt.Fprintln(os.Stderr, "error writing xlsx:", err)
		os.Exit(1)
	}

	fmt.Printf("Workbook written: %s\n", *out)
	for _, s := range wb.Sheets {
		fmt.Printf("  %-20s %d rows\n", s.Name, len(s.Rows))
	}
}
