package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gstdash/internal/core"
	"gstdash/internal/services"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List vendors",
	Example: `  # Every vendor
  gstctl vendors

  # Second upstream page, filtered by name
  gstctl vendors --page 2 --filter traders`,
	RunE: runVendors,
}

func init() {
	rootCmd.AddCommand(vendorsCmd)

	vendorsCmd.Flags().Int("page", 0, "Upstream page to load (enables pagination)")
	vendorsCmd.Flags().String("filter", "", "Case-insensitive filter on name or GSTIN")
}

func runVendors(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	filter, _ := cmd.Flags().GetString("filter")

	paginated := page > 0 || cfg.VendorsPaginated
	if page < 1 {
		page = 1
	}
	svc := services.NewVendorService(source, paginated, logger)
	list, err := svc.List(cmd.Context(), page, filter)
	if err != nil {
		return err
	}
	return printVendors(cmd.OutOrStdout(), list)
}

func printVendors(out io.Writer, list services.VendorList) error {
	if list.OutOfRange {
		_, err := fmt.Fprintf(out, "Page %d is past the end (last page is %d).\n", list.Page, list.LastPage)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GSTIN\tNAME\tTYPE\tSTATE\tTURNOVER")
	for _, v := range list.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.GSTIN, v.Name, core.Title(v.MerchantType), v.State, core.FormatCurrency(string(v.Turnover)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if list.Paginated {
		_, err := fmt.Fprintf(out, "\nPage %d of %d, %d vendors in total\n", list.Page, list.TotalPages, list.TotalCount)
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d of %d vendors\n", len(list.Rows), list.TotalCount)
	return err
}
