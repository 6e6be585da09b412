package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect generation run history",
}

var runsOperator string

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation runs, most recent first",
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

		limit, _ := cmd.Flags().GetInt("limit")

		svc := initService(st)
		runs, err := svc.History(ctx, runsOperator, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs repeat --

var runsRepeatCmd = &cobra.Command{
	Use:   "repeat <generation-id>",
	Short: "Re-run a past generation with its exact criteria and model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")

		svc := initService(st)
		result, err := svc.Repeat(ctx, args[0], runsOperator)
		if err != nil {
			return eris.Wrap(err, "runs repeat")
		}

		printGenerationResult(os.Stdout, result)
		if out != "" {
			if err := writeResultJSON(out, result); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "candidates written to %s\n", out)
		}
		return nil
	},
}

func formatRunsList(w io.Writer, runs []model.GenerationRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSECTOR\tLOCATION\tQTY\tSOURCE\tGENERATED\tACCEPTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"),
			r.Criteria.Sector, r.Criteria.Location, r.Criteria.Quantity,
			r.Source, r.GeneratedCount, r.AcceptedCount)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsOperator, "operator", "", "requesting operator id (required)")
	_ = runsCmd.MarkPersistentFlagRequired("operator")
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list")
	runsRepeatCmd.Flags().String("out", "", "write the full result JSON to this file")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsRepeatCmd)
	rootCmd.AddCommand(runsCmd)
}
