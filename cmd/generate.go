package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vilaweb/leadgen-cli/internal/leadgen"
	"github.com/vilaweb/leadgen-cli/internal/model"
)

var generateFlags struct {
	sector       string
	location     string
	sizeBand     string
	quantity     int
	keywords     string
	model        string
	operator     string
	out          string
	minRevenue   float64
	maxRevenue   float64
	foundedAfter int
	techTags     []string
	includeAll   bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate candidate leads for a search brief",
	Long:  "Runs the generation pipeline: provider attempt, synthetic fallback on failure, deduplication against the existing corpus, and scoring. Candidates are written for review; nothing is persisted until 'accept'.",
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

		criteria := model.GenerationCriteria{
			Sector:          generateFlags.sector,
			Location:        generateFlags.location,
			CompanySizeBand: generateFlags.sizeBand,
			Quantity:        generateFlags.quantity,
			Keywords:        generateFlags.keywords,
		}
		if generateFlags.minRevenue > 0 || generateFlags.maxRevenue > 0 ||
			generateFlags.foundedAfter > 0 || len(generateFlags.techTags) > 0 || generateFlags.includeAll {
			criteria.Filters = &model.AdvancedFilters{
				FoundedAfter:    generateFlags.foundedAfter,
				TechTags:        generateFlags.techTags,
				ExcludeExisting: !generateFlags.includeAll,
			}
			if generateFlags.minRevenue > 0 {
				criteria.Filters.MinRevenue = &generateFlags.minRevenue
			}
			if generateFlags.maxRevenue > 0 {
				criteria.Filters.MaxRevenue = &generateFlags.maxRevenue
			}
		}

		svc := initService(st)
		result, err := svc.Generate(ctx, criteria, generateFlags.model, generateFlags.operator)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		printGenerationResult(os.Stdout, result)

		if generateFlags.out != "" {
			if err := writeResultJSON(generateFlags.out, result); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "candidates written to %s (pass to 'accept' after review)\n", generateFlags.out)
		}
		return nil
	},
}

func printGenerationResult(w io.Writer, result *leadgen.GenerationResult) {
	fmt.Fprintf(w, "Generation %s (source: %s, model: %s)\n", result.GenerationID, result.Source, result.Model)
	if result.Warning != "" {
		fmt.Fprintf(w, "WARNING: %s\n", result.Warning)
	}
	if result.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, "Removed %d duplicate(s): %v\n", result.DuplicatesRemoved, result.DroppedCompanies)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tSECTOR\tLOCATION\tEMPLOYEES\tSCORE\tPRIORITY\tCONTACT")
	for _, c := range result.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			c.CompanyName, c.Sector, c.Location, c.EmployeeCount, c.SuitabilityScore, c.Priority, c.ContactEmail)
	}
	tw.Flush() //nolint:errcheck
}

func writeResultJSON(path string, result *leadgen.GenerationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal generation result")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.sector, "sector", "", "target sector (required)")
	generateCmd.Flags().StringVar(&generateFlags.location, "location", "", "target location (default from config)")
	generateCmd.Flags().StringVar(&generateFlags.sizeBand, "size", "", "company size band, e.g. 10-50")
	generateCmd.Flags().IntVar(&generateFlags.quantity, "quantity", 10, "number of candidates to generate")
	generateCmd.Flags().StringVar(&generateFlags.keywords, "keywords", "", "free-text keywords")
	generateCmd.Flags().StringVar(&generateFlags.model, "model", "", "model id (default from config)")
	generateCmd.Flags().StringVar(&generateFlags.operator, "operator", "", "requesting operator id (required)")
	generateCmd.Flags().StringVar(&generateFlags.out, "out", "", "write the full result JSON to this file")
	generateCmd.Flags().Float64Var(&generateFlags.minRevenue, "min-revenue", 0, "minimum annual revenue (EUR)")
	generateCmd.Flags().Float64Var(&generateFlags.maxRevenue, "max-revenue", 0, "maximum annual revenue (EUR)")
	generateCmd.Flags().IntVar(&generateFlags.foundedAfter, "founded-after", 0, "only companies founded after this year")
	generateCmd.Flags().StringSliceVar(&generateFlags.techTags, "tech", nil, "technology tags")
	generateCmd.Flags().BoolVar(&generateFlags.includeAll, "include-existing", false, "skip the existing-corpus exclusion")
	_ = generateCmd.MarkFlagRequired("sector")
	_ = generateCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(generateCmd)
}
