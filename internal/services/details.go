package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/log"
	"gstdash/internal/table"
)

// Vendor details tabs.
const (
	TabBalance     = "balance"
	TabLedger      = "ledger"
	TabCreditNotes = "credit-notes"
)

// NormalizeTab maps unknown tab names to the balance tab.
func NormalizeTab(tab string) string {
	switch tab {
	case TabLedger, TabCreditNotes:
		return tab
	}
	return TabBalance
}

// Part is one independently fetched section of a page.
type Part[T any] struct {
	Data T
	Err  error
}

func (p Part[T]) OK() bool { return p.Err == nil }

type DetailsRequest struct {
	GSTIN      string
	Tab        string
	LedgerSort table.State
	CreditSort table.State
}

type VendorDetails struct {
	GSTIN string
	// Vendor is zero when the listing failed or does not contain GSTIN.
	Vendor      core.Vendor
	VendorKnown bool
	Tab         string
	LedgerSort  table.State
	CreditSort  table.State
	Links       Links

	Balance      Part[core.Balance]
	BalanceTotal decimal.Decimal
	Ledger       Part[[]core.LedgerEntry]
	LedgerTotals core.LedgerTotals
	CreditNotes  Part[[]core.CreditNote]
	CreditTotals core.TaxSplit
	CreditNet    decimal.Decimal
}

// Failed reports whether every part failed, which the page treats as an
// upstream outage rather than a partial render.
func (d VendorDetails) Failed() bool {
	return !d.Balance.OK() && !d.Ledger.OK() && !d.CreditNotes.OK()
}

// Err joins the part errors, or is nil when every part loaded.
func (d VendorDetails) Err() error {
	return errors.Join(d.Balance.Err, d.Ledger.Err, d.CreditNotes.Err)
}

var (
	LedgerColumns = []Heading{
		{table.ColDate, "Date"},
		{table.ColType, "Type"},
		{"reason", "Reason"},
		{table.ColIGST, "IGST"},
		{table.ColCGST, "CGST"},
		{table.ColSGST, "SGST"},
		{"total", "Total"},
		{"effective_from", "Effective from"},
	}
	CreditNoteColumns = []Heading{
		{table.ColDate, "Date"},
		{"invoice", "Invoice"},
		{"reason", "Reason"},
		{table.ColAmount, "Amount"},
		{"tax", "CGST / SGST / IGST"},
		{table.ColNetAmount, "Net amount"},
		{"status", "Status"},
	}
)

func (d VendorDetails) LedgerHeaders() []table.Header {
	out := make([]table.Header, len(LedgerColumns))
	for i, h := range LedgerColumns {
		out[i] = table.Ledger.Header(d.LedgerSort, h.Column, h.Label)
	}
	return out
}

func (d VendorDetails) CreditNoteHeaders() []table.Header {
	out := make([]table.Header, len(CreditNoteColumns))
	for i, h := range CreditNoteColumns {
		out[i] = table.CreditNotes.Header(d.CreditSort, h.Column, h.Label)
	}
	return out
}

type DetailsService struct {
	src        api.Source
	vendors    *VendorService
	logger     *log.Logger
	structured *log.StructuredLogger
}

func NewDetailsService(src api.Source, vendors *VendorService, logger *log.Logger) *DetailsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentView)
	return &DetailsService{
		src:        src,
		vendors:    vendors,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// Build fetches the balance, ledger, credit notes and vendor record
// concurrently. Each part fails on its own; Build itself only fails when
// the GSTIN is unusable or ctx ends first.
func (s *DetailsService) Build(ctx context.Context, req DetailsRequest, path string) (VendorDetails, error) {
	if err := core.ValidateGSTIN(req.GSTIN); err != nil {
		return VendorDetails{}, err
	}
	d := VendorDetails{
		GSTIN:      req.GSTIN,
		Tab:        NormalizeTab(req.Tab),
		LedgerSort: req.LedgerSort,
		CreditSort: req.CreditSort,
	}
	d.Links = Links{
		Path:  path,
		Sorts: map[string]table.State{ParamLedgerSort: req.LedgerSort, ParamCreditSort: req.CreditSort},
	}
	if d.Tab != TabBalance {
		d.Links.Extra = map[string][]string{ParamTab: {d.Tab}}
	}

	// A plain Group: one failing part must not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		d.Balance.Data, d.Balance.Err = s.src.GetBalance(ctx, req.GSTIN)
		return nil
	})
	g.Go(func() error {
		d.Ledger.Data, d.Ledger.Err = s.src.ListLedger(ctx, req.GSTIN)
		return nil
	})
	g.Go(func() error {
		d.CreditNotes.Data, d.CreditNotes.Err = s.src.ListCreditNotes(ctx, req.GSTIN)
		return nil
	})
	if s.vendors != nil {
		g.Go(func() error {
			v, ok, err := s.vendors.Find(ctx, req.GSTIN)
			if err != nil {
				s.logger.DebugContext(ctx, "Vendor lookup failed", log.FieldGSTIN, req.GSTIN, log.FieldError, err)
				return nil
			}
			d.Vendor, d.VendorKnown = v, ok
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return d, err
	}

	for _, p := range []struct {
		resource string
		err      error
	}{
		{api.ResourceBalance, d.Balance.Err},
		{api.ResourceLedger, d.Ledger.Err},
		{api.ResourceCreditNotes, d.CreditNotes.Err},
	} {
		if p.err != nil {
			s.structured.LogUpstreamFailure(ctx, p.resource, req.GSTIN, p.err)
		}
	}

	if d.Balance.OK() {
		d.BalanceTotal = d.Balance.Data.Total()
	}
	if d.Ledger.OK() {
		d.LedgerTotals = core.SumLedger(d.Ledger.Data)
		d.Ledger.Data = table.Ledger.Sort(d.Ledger.Data, req.LedgerSort)
	}
	if d.CreditNotes.OK() {
		for _, c := range d.CreditNotes.Data {
			d.CreditTotals.IGST = d.CreditTotals.IGST.Add(c.IGST.Decimal())
			d.CreditTotals.CGST = d.CreditTotals.CGST.Add(c.CGST.Decimal())
			d.CreditTotals.SGST = d.CreditTotals.SGST.Add(c.SGST.Decimal())
			d.CreditNet = d.CreditNet.Add(c.NetAmount.Decimal())
		}
		d.CreditNotes.Data = table.CreditNotes.Sort(d.CreditNotes.Data, req.CreditSort)
	}
	return d, nil
}
