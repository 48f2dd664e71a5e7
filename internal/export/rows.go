// Package export writes filings out to spreadsheets.
package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"gstdash/internal/core"
)

// FilingHeader labels the per-filing columns shared by every export.
var FilingHeader = []string{
	"GSTIN", "Vendor", "Timeframe", "Period start", "Period end", "Due date",
	"Filed at", "Status", "Late", "Invoice count", "Invoices shown",
	"Total amount", "Total tax", "Input tax credit", "Tax payable", "Penalty", "Total payable",
}

// InvoiceHeader labels the per-invoice columns.
var InvoiceHeader = []string{
	"Invoice", "Invoice date", "Amount", "CGST", "SGST", "IGST",
	"Net amount", "ITC", "Amount paid", "Invoice status", "Payment status",
}

// Header is the header of FilingRows: filing columns then invoice columns.
func Header() []string {
	out := make([]string, 0, len(FilingHeader)+len(InvoiceHeader))
	out = append(out, FilingHeader...)
	return append(out, InvoiceHeader...)
}

// FilingRows flattens filings into one row per invoice. A filing without
// embedded invoices still gets one row, with the invoice columns blank.
// Amounts are plain decimals with two places.
func FilingRows(filings []core.Filing) [][]string {
	values := flatValues(filings)
	rows := make([][]string, len(values))
	for i, vs := range values {
		row := make([]string, len(vs))
		for j, v := range vs {
			row[j] = cellString(v)
		}
		rows[i] = row
	}
	return rows
}

func flatValues(filings []core.Filing) [][]any {
	var rows [][]any
	for _, f := range filings {
		base := filingValues(f)
		if len(f.Invoices) == 0 {
			row := append(append([]any{}, base...), make([]any, len(InvoiceHeader))...)
			rows = append(rows, row)
			continue
		}
		for _, inv := range f.Invoices {
			rows = append(rows, append(append([]any{}, base...), invoiceValues(inv)...))
		}
	}
	return rows
}

// filingValues returns typed cells: strings, ints, bools and decimals.
func filingValues(f core.Filing) []any {
	filedAt := ""
	if f.Filed() {
		filedAt = *f.FiledAt
	}
	return []any{
		f.GSTIN,
		f.VendorName,
		f.Timeframe,
		f.FilingStartDate,
		f.FilingEndDate,
		f.DueDate,
		filedAt,
		f.Status,
		f.IsLate,
		f.InvoiceCount,
		f.InvoicesShown(),
		f.TotalAmount.Decimal(),
		f.TotalTax.Decimal(),
		f.InputTaxCredit.Decimal(),
		f.TaxPayable.Decimal(),
		f.Penalty.Decimal(),
		f.TotalPayableAmount.Decimal(),
	}
}

func invoiceValues(inv core.Invoice) []any {
	return []any{
		inv.InvoiceID,
		inv.Date,
		inv.Amount.Decimal(),
		inv.CGST.Decimal(),
		inv.SGST.Decimal(),
		inv.IGST.Decimal(),
		inv.NetAmount.Decimal(),
		inv.ITC.Decimal(),
		inv.AmountPaid.Decimal(),
		inv.Status,
		inv.PaymentStatus,
	}
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case decimal.Decimal:
		return x.StringFixed(2)
	default:
		return fmt.Sprint(x)
	}
}

// cellNumber converts decimals to the float cells spreadsheets expect and
// passes everything else through.
func cellNumber(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.Round(2).InexactFloat64()
	}
	if v == nil {
		return ""
	}
	return v
}
