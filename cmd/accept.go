package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vilaweb/leadgen-cli/internal/leadgen"
	"github.com/vilaweb/leadgen-cli/internal/model"
)

var acceptFlags struct {
	file      string
	operator  string
	companies []string
}

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Persist reviewed candidates as leads",
	Long:  "Reads a generation result file (from 'generate --out'), optionally filters it to named companies, and persists the selection. Duplicates found at write time are skipped and counted, never fatal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(acceptFlags.file)
		if err != nil {
			return eris.Wrapf(err, "read %s", acceptFlags.file)
		}
		var result leadgen.GenerationResult
		if err := json.Unmarshal(data, &result); err != nil {
			return eris.Wrapf(err, "parse %s", acceptFlags.file)
		}

		selection := result.Candidates
		if len(acceptFlags.companies) > 0 {
			selection = filterByCompany(result.Candidates, acceptFlags.companies)
		}
		if len(selection) == 0 {
			return eris.New("no candidates selected")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		svc := initService(st)
		persisted, err := svc.PersistAccepted(ctx, result.GenerationID, selection, acceptFlags.operator)
		if err != nil {
			return eris.Wrap(err, "accept")
		}

		fmt.Printf("accepted %d, skipped %d\n", persisted.AcceptedCount, persisted.SkippedCount)
		for _, lead := range persisted.Created {
			fmt.Printf("  %s  %s (%s)\n", lead.ID, lead.CompanyName, lead.Priority)
		}
		return nil
	},
}

func filterByCompany(candidates []model.CandidateLead, names []string) []model.CandidateLead {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []model.CandidateLead
	for _, c := range candidates {
		if wanted[c.CompanyName] {
			out = append(out, c)
		}
	}
	return out
}

func init() {
	acceptCmd.Flags().StringVar(&acceptFlags.file, "file", "", "generation result JSON from 'generate --out' (required)")
	acceptCmd.Flags().StringVar(&acceptFlags.operator, "operator", "", "accepting operator id (required)")
	acceptCmd.Flags().StringSliceVar(&acceptFlags.companies, "company", nil, "accept only these company names (default: all)")
	_ = acceptCmd.MarkFlagRequired("file")
	_ = acceptCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(acceptCmd)
}
