package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var perfOperator string

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Weekly generation performance",
	Long:  "Buckets generation runs by ISO week and reports generated vs accepted lead counts for trend reporting.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		svc := initService(st)
		buckets, err := svc.WeeklyPerformance(ctx, perfOperator)
		if err != nil {
			return eris.Wrap(err, "perf")
		}

		if len(buckets) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WEEK\tGENERATED\tACCEPTED\tACCEPT RATE")
		for _, b := range buckets {
			rate := 0.0
			if b.GeneratedCount > 0 {
				rate = float64(b.AcceptedCount) / float64(b.GeneratedCount) * 100
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n",
				b.WeekStart.Format("2006-01-02"), b.GeneratedCount, b.AcceptedCount, rate)
		}
		tw.Flush() //nolint:errcheck
		return nil
	},
}

func init() {
	perfCmd.Flags().StringVar(&perfOperator, "operator", "", "requesting operator id (required)")
	_ = perfCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(perfCmd)
}
