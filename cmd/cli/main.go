package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"planrec/adapters/excel"
	"planrec/app"
	"planrec/domain/dataset"
	"planrec/internal"
	"planrec/internal/config"
	idataset "planrec/internal/dataset"
	"planrec/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	file     string
	limit    int
	format   string
	logLevel string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "planrec-cli",
		Short:         "Query the subscription workbook from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := defaultOptions()
	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", defaults.file, "Workbook path (DATASET_FILE)")
	rootCmd.PersistentFlags().IntVar(&opts.limit, "limit", defaults.limit, "Plans per recommendation (RECOMMENDATION_LIMIT)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "output", "o", "text", "Output format: text|json")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaults.logLevel, "ERROR|WARN|INFO|DEBUG|TRACE")

	rootCmd.AddCommand(
		newRecommendCmd(opts),
		newPlansCmd(opts),
		newUsersCmd(opts),
		newBillingCmd(opts),
	)
	return rootCmd
}

// defaultOptions takes flag defaults from the environment, falling back to
// built-in values when the environment does not validate.
func defaultOptions() options {
	opts := options{file: config.DefaultDatasetFile, limit: app.DefaultRecommendationLimit, logLevel: "WARN"}
	if cfg, err := config.Load(); err == nil {
		opts.file = cfg.Dataset.File
		opts.limit = cfg.Recommendation.Limit
	}
	return opts
}

func newRecommendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [user-id]",
		Short: "Recommend plans for a user",
		Long: `Recommend plans for a user.

Users with active subscriptions get the plans nearest to their current plan
profile by price and auto-renewal. Everyone else gets the cheapest plans.

Example: planrec-cli recommend U001 --file SubscriptionUseCase_Dataset.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 1 {
				return errors.InvalidInput(fmt.Sprintf("--limit must be at least 1, got %d", opts.limit))
			}
			snap, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}
			rec, err := app.RecommendFor(snap, args[0], opts.limit)
			if err != nil {
				return err
			}
			return printRecommendation(cmd.OutOrStdout(), opts.format, rec)
		},
	}
}

func newPlansCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List every subscription plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}
			plans := snap.Plans()
			rows := make([]dataset.Record, 0, len(plans))
			for _, p := range plans {
				rows = append(rows, p.Fields)
			}
			return printRecords(cmd.OutOrStdout(), opts.format, rows)
		},
	}
}

func newUsersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}
			users := snap.Users()
			rows := make([]dataset.Record, 0, len(users))
			for _, u := range users {
				rows = append(rows, u.Fields)
			}
			return printRecords(cmd.OutOrStdout(), opts.format, rows)
		},
	}
}

func newBillingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "billing [user-id]",
		Short: "Summarize a user's billing history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}
			summary, err := app.SummarizeBilling(snap, args[0])
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "User: %s\n", summary.UserID)
			fmt.Fprintf(w, "Subscriptions: %d\n", summary.Subscriptions)
			fmt.Fprintf(w, "Payments: %d\n", summary.Payments)
			fmt.Fprintf(w, "Total billed: %.2f\n", summary.TotalBilled)
			fmt.Fprintf(w, "Average billed: %.2f\n", summary.AverageBilled)
			fmt.Fprintf(w, "Failed payments: %d\n", summary.FailedPayments)
			if summary.InvalidAmounts > 0 {
				fmt.Fprintf(w, "Unreadable amounts: %d\n", summary.InvalidAmounts)
			}
			return nil
		},
	}
}

func loadSnapshot(ctx context.Context, opts *options) (*dataset.Snapshot, error) {
	if opts.format != "text" && opts.format != "json" {
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported output format %q", opts.format))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(opts.logLevel))
	wc := excel.DefaultWorkbookConfig()
	wc.FilePath = opts.file

	snap, err := idataset.NewLoader(excel.NewSheetReader(logger), wc, logger).Load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load %s", opts.file)
	}
	return snap, nil
}

func printRecommendation(w io.Writer, format string, rec *app.Recommendation) error {
	if format == "json" {
		plans := make([]map[string]interface{}, 0, len(rec.Plans))
		for _, sp := range rec.Plans {
			item := make(map[string]interface{}, len(sp.Plan.Fields)+1)
			for k, v := range sp.Plan.Fields {
				item[k] = v
			}
			if rec.HasDistance() {
				item["distance"] = sp.Distance
			}
			plans = append(plans, item)
		}
		return printJSON(w, map[string]interface{}{
			"user_id":  rec.UserID,
			"strategy": rec.Strategy,
			"reason":   rec.Reason,
			"profile":  rec.Profile,
			"plans":    plans,
		})
	}

	fmt.Fprintf(w, "Reason: %s\n", rec.Reason)
	if rec.Profile != nil {
		fmt.Fprintf(w, "Current profile: avg price %.2f, auto-renew %.2f over %d plan(s)\n",
			rec.Profile.AvgPrice, rec.Profile.AvgAutoRenew, rec.Profile.PlanCount)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if rec.HasDistance() {
		fmt.Fprintln(tw, "PRODUCT\tPRICE\tAUTO RENEW\tDISTANCE")
		for _, sp := range rec.Plans {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\n", sp.Plan.ProductID, sp.Plan.PriceRaw, sp.Plan.Fields.Get(dataset.ColAutoRenewal), sp.Distance)
		}
	} else {
		fmt.Fprintln(tw, "PRODUCT\tPRICE\tAUTO RENEW")
		for _, sp := range rec.Plans {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", sp.Plan.ProductID, sp.Plan.PriceRaw, sp.Plan.Fields.Get(dataset.ColAutoRenewal))
		}
	}
	return tw.Flush()
}

// printRecords writes rows as a table whose columns are the union of the row
// keys in sorted order.
func printRecords(w io.Writer, format string, rows []dataset.Record) error {
	if format == "json" {
		return printJSON(w, rows)
	}

	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = row[c]
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(rows))
	return tw.Flush()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
