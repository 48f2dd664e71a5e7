package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gstdash/internal/core"
)

const (
	SheetFilings  = "Filings"
	SheetInvoices = "Invoices"
)

// ContentTypeXLSX is the media type of WriteXLSX output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes a workbook with one row per filing on the Filings sheet
// and one row per invoice on the Invoices sheet. Amounts are numeric cells.
func WriteXLSX(w io.Writer, filings []core.Filing) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new file starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SheetFilings); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetInvoices); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	filingRows := make([][]any, len(filings))
	for i, fl := range filings {
		filingRows[i] = filingValues(fl)
	}
	if err := writeSheet(f, SheetFilings, FilingHeader, filingRows, bold); err != nil {
		return err
	}

	invoiceHeader := append([]string{"GSTIN", "Period start", "Timeframe"}, InvoiceHeader...)
	var invoiceRows [][]any
	for _, fl := range filings {
		for _, inv := range fl.Invoices {
			row := append([]any{fl.GSTIN, fl.FilingStartDate, fl.Timeframe}, invoiceValues(inv)...)
			invoiceRows = append(invoiceRows, row)
		}
	}
	if err := writeSheet(f, SheetInvoices, invoiceHeader, invoiceRows, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellNumber(v)
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
