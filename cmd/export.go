package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

var exportFlags struct {
	out        string
	status     string
	unassigned bool
	limit      int
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted leads to an XLSX spreadsheet",
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

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			Status:     model.LeadStatus(exportFlags.status),
			Unassigned: exportFlags.unassigned,
			Limit:      exportFlags.limit,
		})
		if err != nil {
			return eris.Wrap(err, "export: list leads")
		}

		if err := writeLeadsXLSX(exportFlags.out, leads); err != nil {
			return err
		}
		fmt.Printf("exported %d lead(s) to %s\n", len(leads), exportFlags.out)
		return nil
	},
}

func writeLeadsXLSX(path string, leads []model.Lead) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{
		"Company", "Sector", "Location", "Employees", "Est. Revenue (EUR)",
		"Contact", "Email", "Phone", "Score", "Priority", "Status",
		"Source", "Model", "Generated At", "Created At",
	} {
		header.AddCell().Value = col
	}

	for _, l := range leads {
		row := sheet.AddRow()
		row.AddCell().Value = l.CompanyName
		row.AddCell().Value = l.Sector
		row.AddCell().Value = l.Location
		row.AddCell().SetInt(l.EmployeeCount)
		row.AddCell().SetFloat(l.EstimatedRevenue)
		row.AddCell().Value = l.ContactName
		row.AddCell().Value = l.ContactEmail
		row.AddCell().Value = l.ContactPhone
		row.AddCell().SetInt(l.SuitabilityScore)
		row.AddCell().Value = string(l.Priority)
		row.AddCell().Value = string(l.Status)
		row.AddCell().Value = string(l.Source)
		row.AddCell().Value = l.Provenance.Model
		row.AddCell().Value = l.Provenance.GeneratedAt.UTC().Format("2006-01-02 15:04:05")
		row.AddCell().Value = l.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "leads.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportFlags.status, "status", "", "filter by lead status")
	exportCmd.Flags().BoolVar(&exportFlags.unassigned, "unassigned", false, "only unassigned leads")
	exportCmd.Flags().IntVar(&exportFlags.limit, "limit", 1000, "maximum leads to export")
	rootCmd.AddCommand(exportCmd)
}
