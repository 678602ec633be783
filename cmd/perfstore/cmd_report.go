package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sawpanic/perfstore/internal/bucket"
	"github.com/sawpanic/perfstore/internal/report"
	"github.com/sawpanic/perfstore/internal/stats"
)

func newReportCmd() *cobra.Command {
	var (
		date    string
		days    int
		asJSON  bool
		minutes bool
	)

	cmd := &cobra.Command{
		Use:   "report <category>",
		Short: "Summarize stored samples per day",
		Long: `Builds median and percentile summaries for category over --days days
ending at --date (default today, UTC). --days defaults to the number of day
buckets the retention window touches.`,
		Example: `  perfstore report web
  perfstore report web --date 2024-01-31 --days 1 --minutes
  perfstore report web --json | jq '.[].total.p95'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := args[0]
			if err := bucket.ValidateCategory(category); err != nil {
				return err
			}

			end := bucket.Now().UTC()
			if date != "" {
				parsed, err := bucket.ParseDay(date)
				if err != nil {
					return err
				}
				end = parsed
			}
			if !cmd.Flags().Changed("days") {
				days = bucket.Days(cfg.Retention)
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openStore(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			builder := report.NewBuilder(s, report.Options{
				ValueField:  cfg.Report.ValueField,
				Concurrency: cfg.Report.Concurrency,
			})
			reports, err := builder.Range(ctx, category, end, days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(os.Stdout) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			return renderReports(out, reports, minutes)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Last day to report, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 1, "Number of days ending at --date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&minutes, "minutes", false, "Include one row per minute bucket")
	return cmd
}

// renderReports prints reports as an aligned table, one row per day and
// optionally one per minute.
func renderReports(out io.Writer, reports []report.DayReport, minutes bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DAY\tMINUTE\tCOUNT\tMEDIAN\tP95\tP99\tMAX\tSKIPPED\t")

	for _, r := range reports {
		writeRow(tw, r.Day, "all", r.Total, fmt.Sprint(r.Skipped))
		if !minutes {
			continue
		}
		for _, m := range r.Minutes {
			writeRow(tw, "", m.Minute, m.Summary, "")
		}
	}
	return tw.Flush()
}

func writeRow(w io.Writer, day, minute string, s stats.Summary, skipped string) {
	if !s.HasData {
		fmt.Fprintf(w, "%s\t%s\t0\t-\t-\t-\t-\t%s\t\n", day, minute, skipped)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n",
		day, minute, s.Count, num(s.Median), num(s.P95), num(s.P99), num(s.Max), skipped)
}

func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
