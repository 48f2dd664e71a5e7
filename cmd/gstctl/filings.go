package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gstdash/internal/core"
	"gstdash/internal/services"
	"gstdash/internal/table"
)

var filingsCmd = &cobra.Command{
	Use:   "filings",
	Short: "List GST filings with invoice totals",
	Example: `  # Every filing, latest due date first
  gstctl filings --sort due_date.desc

  # One vendor
  gstctl filings --gstin 29ABCDE1234F1Z5`,
	RunE: runFilings,
}

func init() {
	rootCmd.AddCommand(filingsCmd)

	filingsCmd.Flags().String("gstin", "", "Only this vendor's filings")
	filingsCmd.Flags().String("sort", "", "Sort as column.direction, e.g. penalty.desc")
}

func runFilings(cmd *cobra.Command, args []string) error {
	gstin, _ := cmd.Flags().GetString("gstin")
	rawSort, _ := cmd.Flags().GetString("sort")

	if gstin != "" {
		if err := core.ValidateGSTIN(gstin); err != nil {
			return fmt.Errorf("invalid --gstin: %w", err)
		}
	}
	sort, err := table.Filings.Parse(rawSort)
	if err != nil {
		return fmt.Errorf("invalid --sort: %w", err)
	}

	view, err := services.NewFilingService(source).Build(cmd.Context(),
		services.FilingsRequest{GSTIN: gstin, Sort: sort}, "")
	if err != nil {
		return err
	}
	return printFilings(cmd.OutOrStdout(), view)
}

func printFilings(out io.Writer, view services.FilingsView) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GSTIN\tVENDOR\tTIMEFRAME\tPERIOD\tDUE\tSTATUS\tINVOICES\tTOTAL\tPENALTY")
	for _, row := range view.Filings {
		invoices := fmt.Sprintf("%d/%d", row.Shown, row.InvoiceCount)
		if row.Mismatch {
			invoices += " !"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s to %s\t%s\t%s\t%s\t%s\t%s\n",
			row.GSTIN,
			row.VendorName,
			core.Title(row.Timeframe),
			core.FormatDate(row.FilingStartDate),
			core.FormatDate(row.FilingEndDate),
			core.FormatDate(row.DueDate),
			core.Title(row.Filing.Status),
			invoices,
			core.FormatCurrency(string(row.TotalAmount)),
			core.FormatCurrency(string(row.Penalty)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := view.Totals
	_, err := fmt.Fprintf(out, "\n%d filings, %d invoices shown. Amount %s, net %s, ITC %s\n",
		len(view.Filings), t.Count,
		core.FormatDecimal(t.Amount), core.FormatDecimal(t.NetAmount), core.FormatDecimal(t.ITC))
	return err
}
