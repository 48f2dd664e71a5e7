package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/export"
	"gstdash/internal/log"
	"gstdash/internal/table"
)

const (
	formatXLSX   = "xlsx"
	formatSheets = "sheets"

	// exportWorkers bounds concurrent upstream calls during --all.
	exportWorkers = 4
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filings and their invoices to XLSX or Google Sheets",
	Long: `Export writes one row per invoice with the filing columns repeated.

Google Sheets export needs GOOGLE_SPREADSHEET_ID (or --spreadsheet) and a
service account in GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE.`,
	Example: `  # Everything the upstream lists, to a workbook
  gstctl export --out filings.xlsx

  # Walk every vendor one by one
  gstctl export --all --out filings.xlsx

  # One vendor to a sheet
  gstctl export --gstin 29ABCDE1234F1Z5 --format sheets --sheet Filings`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("gstin", "", "Only this vendor's filings")
	exportCmd.Flags().Bool("all", false, "Fetch filings vendor by vendor, skipping vendors that fail")
	exportCmd.Flags().String("format", formatXLSX, "Output format: xlsx or sheets")
	exportCmd.Flags().String("out", "", "Output file for xlsx (default filings.xlsx)")
	exportCmd.Flags().String("sort", "", "Sort as column.direction, e.g. due_date.desc")
	exportCmd.Flags().String("spreadsheet", "", "Spreadsheet ID (overrides GOOGLE_SPREADSHEET_ID)")
	exportCmd.Flags().String("sheet", "", "Sheet name (overrides GOOGLE_SHEET_NAME)")
	exportCmd.MarkFlagsMutuallyExclusive("gstin", "all")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	gstin, _ := cmd.Flags().GetString("gstin")
	all, _ := cmd.Flags().GetBool("all")
	format, _ := cmd.Flags().GetString("format")
	rawSort, _ := cmd.Flags().GetString("sort")

	if format != formatXLSX && format != formatSheets {
		return fmt.Errorf("unknown --format %q: must be %s or %s", format, formatXLSX, formatSheets)
	}
	if gstin != "" {
		if err := core.ValidateGSTIN(gstin); err != nil {
			return fmt.Errorf("invalid --gstin: %w", err)
		}
	}
	sort, err := table.Filings.Parse(rawSort)
	if err != nil {
		return fmt.Errorf("invalid --sort: %w", err)
	}

	var filings []core.Filing
	switch {
	case all:
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Fetching filings"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		filings, err = collectAll(ctx, source, bar, logger)
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	case gstin != "":
		filings, err = source.ListFilingsByVendor(ctx, gstin)
	default:
		filings, err = source.ListAllFilings(ctx)
	}
	if err != nil {
		return err
	}
	filings = table.Filings.Sort(filings, sort)

	switch format {
	case formatSheets:
		return exportSheets(cmd, filings)
	default:
		return exportXLSX(cmd, gstin, filings)
	}
}

// progress is the part of the progress bar collectAll drives.
type progress interface {
	ChangeMax(int)
	Add(int) error
}

// collectAll lists every vendor and fetches their filings concurrently.
// A vendor whose filings cannot be fetched is logged and skipped; only a
// failure to list vendors is an error. Order follows the vendor list.
func collectAll(ctx context.Context, src api.Source, bar progress, logger *log.Logger) ([]core.Filing, error) {
	vendors, err := src.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	bar.ChangeMax(len(vendors))

	perVendor := make([][]core.Filing, len(vendors))
	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportWorkers)
	for i, v := range vendors {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			filings, err := src.ListFilingsByVendor(gctx, v.GSTIN)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.WarnContext(gctx, "Skipping vendor",
					log.NewFields().WithUpstream(api.ResourceFilings, v.GSTIN).WithError(err).ToSlice()...)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			perVendor[i] = filings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Filing
	for _, fs := range perVendor {
		out = append(out, fs...)
	}
	logger.InfoContext(ctx, "Collected filings",
		"vendors", len(vendors), "skipped", skipped, log.FieldCount, len(out))
	return out, nil
}

func exportXLSX(cmd *cobra.Command, gstin string, filings []core.Filing) error {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = "filings.xlsx"
		if gstin != "" {
			path = "gst-filings-" + gstin + ".xlsx"
		}
	}

	var err error
	if path == "-" {
		err = writeWorkbook(cmd.OutOrStdout(), filings)
	} else {
		err = writeWorkbookFile(path, filings)
	}
	if err != nil {
		return err
	}

	logger.InfoContext(cmd.Context(), "Workbook written",
		log.FieldOperation, log.OpExport, "path", path, log.FieldCount, len(filings))
	return nil
}

func writeWorkbook(w io.Writer, filings []core.Filing) error {
	if err := export.WriteXLSX(w, filings); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeWorkbookFile writes the workbook to path. A failed close is an error.
func writeWorkbookFile(path string, filings []core.Filing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeWorkbook(f, filings); err != nil {
		return errors.Join(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func exportSheets(cmd *cobra.Command, filings []core.Filing) error {
	if id, _ := cmd.Flags().GetString("spreadsheet"); id != "" {
		cfg.GoogleSpreadsheetID = id
	}
	if name, _ := cmd.Flags().GetString("sheet"); name != "" {
		cfg.GoogleSheetName = name
	}
	if err := cfg.ValidateSheetsExport(); err != nil {
		return err
	}

	values, err := export.NewGoogleValues(cmd.Context(), export.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	return export.NewSheetsExporter(values, logger).
		Export(cmd.Context(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, filings)
}
