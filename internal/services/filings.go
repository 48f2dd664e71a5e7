package services

import (
	"context"
	"fmt"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/table"
)

// FilingsRequest is the parsed state of a filings page.
type FilingsRequest struct {
	// GSTIN selects one vendor; empty means every vendor.
	GSTIN string
	Sort  table.State
	// InvoiceSorts holds each filing's invoice table state, keyed by
	// FilingRow.Key.
	InvoiceSorts table.Scoped
	Expansion    table.Expansion
}

type FilingsView struct {
	GSTIN   string
	All     bool
	Filings []FilingRow
	Sort    table.State
	Links   Links
	// Totals spans every embedded invoice of every filing.
	Totals core.InvoiceTotals
}

// FilingRow is one filing and, when expanded, its invoices.
type FilingRow struct {
	core.Filing
	Key    string
	Open   bool
	Status core.StatusBucket
	// Shown is how many invoices are actually embedded; it is displayed
	// next to the reported InvoiceCount, which may disagree.
	Shown         int
	Mismatch      bool
	Invoices      []InvoiceRow
	InvoiceSort   table.State
	InvoiceTotals core.InvoiceTotals
}

type InvoiceRow struct {
	core.Invoice
	// Key identifies the invoice under its filing for expansion.
	Key           string
	Open          bool
	Status        core.StatusBucket
	PaymentStatus core.StatusBucket
	ProductTotals core.ProductTotals
}

// Filing table headings, in display order.
var (
	FilingColumns = []Heading{
		{table.ColDueDate, "Due date"},
		{"period", "Period"},
		{table.ColStatus, "Status"},
		{"invoices", "Invoices"},
		{table.ColTotalAmount, "Total amount"},
		{"total_tax", "Total tax"},
		{table.ColPenalty, "Penalty"},
		{table.ColTotalPayable, "Total payable"},
	}
	InvoiceColumns = []Heading{
		{table.ColInvoiceID, "Invoice"},
		{table.ColDate, "Date"},
		{table.ColAmount, "Amount"},
		{table.ColCGST, "CGST"},
		{table.ColSGST, "SGST"},
		{table.ColIGST, "IGST"},
		{table.ColNetAmount, "Net amount"},
		{table.ColITC, "ITC"},
		{table.ColAmountPaid, "Amount paid"},
		{"status", "Status"},
	}
)

// Heading is a column label; not every heading is sortable.
type Heading struct {
	Column table.Column
	Label  string
}

func (v FilingsView) FilingHeaders() []table.Header {
	out := make([]table.Header, len(FilingColumns))
	for i, h := range FilingColumns {
		out[i] = table.Filings.Header(v.Sort, h.Column, h.Label)
	}
	return out
}

// InvoiceHeaders builds the headings of this filing's own invoice table.
func (r FilingRow) InvoiceHeaders() []table.Header {
	out := make([]table.Header, len(InvoiceColumns))
	for i, h := range InvoiceColumns {
		out[i] = table.Invoices.Header(r.InvoiceSort, h.Column, h.Label)
	}
	return out
}

type FilingService struct {
	src api.FilingSource
}

func NewFilingService(src api.FilingSource) *FilingService {
	return &FilingService{src: src}
}

// Fetch returns the raw filings for req.GSTIN, or every filing.
func (s *FilingService) Fetch(ctx context.Context, gstin string) ([]core.Filing, error) {
	if gstin == "" {
		filings, err := s.src.ListAllFilings(ctx)
		if err != nil {
			return nil, fmt.Errorf("list all filings: %w", err)
		}
		return filings, nil
	}
	filings, err := s.src.ListFilingsByVendor(ctx, gstin)
	if err != nil {
		return nil, fmt.Errorf("list filings for %s: %w", gstin, err)
	}
	return filings, nil
}

// Build fetches filings and shapes them for display.
func (s *FilingService) Build(ctx context.Context, req FilingsRequest, path string) (FilingsView, error) {
	view := FilingsView{
		GSTIN: req.GSTIN,
		All:   req.GSTIN == "",
		Sort:  req.Sort,
		Links: Links{
			Path:      path,
			Sorts:     map[string]table.State{ParamSort: req.Sort},
			Scoped:    map[string]table.Scoped{ParamInvoiceSort: req.InvoiceSorts},
			Expansion: req.Expansion,
		},
	}
	filings, err := s.Fetch(ctx, req.GSTIN)
	if err != nil {
		return view, err
	}
	view.Filings, view.Totals = ShapeFilings(filings, req)
	return view, nil
}

// ShapeFilings sorts and expands filings without modifying them.
func ShapeFilings(filings []core.Filing, req FilingsRequest) ([]FilingRow, core.InvoiceTotals) {
	sorted := table.Filings.Sort(filings, req.Sort)
	rows := make([]FilingRow, len(sorted))
	var all []core.Invoice
	for i, f := range sorted {
		key := f.Key()
		row := FilingRow{
			Filing:        f,
			Key:           key,
			Open:          req.Expansion.IsOpen(key),
			Status:        core.ClassifyStatus(f.Status),
			Shown:         f.InvoicesShown(),
			Mismatch:      f.CountMismatch(),
			InvoiceTotals: core.SumInvoices(f.Invoices),
		}
		if row.Open {
			row.InvoiceSort = req.InvoiceSorts.Get(key)
			order := table.Invoices.Order(f.Invoices, row.InvoiceSort)
			row.Invoices = make([]InvoiceRow, len(order))
			for j, pos := range order {
				inv := f.Invoices[pos]
				child := f.InvoiceKey(pos)
				row.Invoices[j] = InvoiceRow{
					Invoice:       inv,
					Key:           child,
					Open:          req.Expansion.IsChildOpen(key, child),
					Status:        core.ClassifyStatus(inv.Status),
					PaymentStatus: core.ClassifyStatus(inv.PaymentStatus),
					ProductTotals: core.SumProducts(inv.Products),
				}
			}
		}
		all = append(all, f.Invoices...)
		rows[i] = row
	}
	return rows, core.SumInvoices(all)
}
