package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstdash/internal/api"
	"gstdash/internal/api/memory"
	"gstdash/internal/core"
	"gstdash/internal/log"
	"gstdash/internal/table"
)

func vendorFixture(n int) []core.Vendor {
	out := make([]core.Vendor, n)
	for i := range out {
		out[i] = core.Vendor{GSTIN: fmt.Sprintf("29AAAA%04dZ", i+1), Name: fmt.Sprintf("Vendor %02d", i+1)}
	}
	out[3].Name = "Acme Traders"
	return out
}

func TestVendorList_Paginated(t *testing.T) {
	src := memory.New(memory.Data{Vendors: vendorFixture(25)})
	svc := NewVendorService(src, true, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		page       int
		rows       int
		wantPage   int
		hasPrev    bool
		hasNext    bool
		outOfRange bool
	}{
		{name: "first", page: 1, rows: 10, wantPage: 1, hasNext: true},
		{name: "middle", page: 2, rows: 10, wantPage: 2, hasPrev: true, hasNext: true},
		{name: "last", page: 3, rows: 5, wantPage: 3, hasPrev: true},
		{name: "clamped below", page: -2, rows: 10, wantPage: 1, hasNext: true},
		{name: "past the end", page: 4, rows: 0, wantPage: 4, hasPrev: true, outOfRange: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(ctx, tt.page, "")
			require.NoError(t, err)
			assert.Len(t, list.Rows, tt.rows)
			assert.NotNil(t, list.Rows)
			assert.Equal(t, tt.wantPage, list.Page)
			assert.Equal(t, 3, list.TotalPages)
			assert.Equal(t, 3, list.LastPage)
			assert.Equal(t, tt.hasPrev, list.HasPrev)
			assert.Equal(t, tt.hasNext, list.HasNext)
			assert.Equal(t, tt.outOfRange, list.OutOfRange)
		})
	}
}

func TestVendorList_FilterAppliesToLoadedPageOnly(t *testing.T) {
	src := memory.New(memory.Data{Vendors: vendorFixture(25)})
	svc := NewVendorService(src, true, nil)
	ctx := context.Background()

	list, err := svc.List(ctx, 1, "acme")
	require.NoError(t, err)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "Acme Traders", list.Rows[0].Name)
	assert.Equal(t, 10, list.Loaded)

	list, err = svc.List(ctx, 2, "acme")
	require.NoError(t, err)
	assert.Empty(t, list.Rows, "the match lives on page 1")

	list, err = svc.List(ctx, 1, "29aaaa0002")
	require.NoError(t, err)
	assert.Len(t, list.Rows, 1, "gstin matches are case-insensitive")
}

func TestVendorList_Unpaginated(t *testing.T) {
	svc := NewVendorService(memory.New(memory.Data{Vendors: vendorFixture(25)}), false, nil)

	list, err := svc.List(context.Background(), 7, "")
	require.NoError(t, err)
	assert.Len(t, list.Rows, 25)
	assert.Equal(t, 1, list.Page)
	assert.False(t, list.HasNext)
	assert.False(t, list.Paginated)
}

func TestVendorSelectorAndFind(t *testing.T) {
	svc := NewVendorService(memory.New(memory.Data{Vendors: vendorFixture(25)}), true, nil)
	ctx := context.Background()

	sel, err := svc.Selector(ctx, "vendor 2")
	require.NoError(t, err)
	assert.Equal(t, 25, sel.Total)
	assert.Len(t, sel.Rows, 6) // 20..25

	v, ok, err := svc.Find(ctx, "29AAAA0004Z")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Acme Traders", v.Name)

	_, ok, err = svc.Find(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func filingFixture() []core.Filing {
	return []core.Filing{
		{
			GSTIN: "G1", FilingStartDate: "2025-01-01", Timeframe: "monthly", DueDate: "2025-02-20",
			TotalAmount: "300", Status: "filed", InvoiceCount: 2,
			Invoices: []core.Invoice{
				{InvoiceID: "INV-2", Amount: "200", Date: "2025-01-20", Products: []core.Product{{SKU: "A", Quantity: 2, PriceAfterDiscount: "100"}}},
				{InvoiceID: "INV-1", Amount: "100", Date: "2025-01-05"},
			},
		},
		{
			GSTIN: "G1", FilingStartDate: "2025-02-01", Timeframe: "monthly", DueDate: "2025-03-20",
			TotalAmount: "50", Status: "pending", InvoiceCount: 5, Invoices: []core.Invoice{},
		},
		{GSTIN: "G2", FilingStartDate: "2025-01-01", Timeframe: "quarterly", DueDate: "2025-04-20", TotalAmount: "null", Status: "Overdue"},
	}
}

func TestFilingsView_SortExpandTotals(t *testing.T) {
	src := memory.New(memory.Data{Filings: filingFixture()})
	svc := NewFilingService(src)

	key := filingFixture()[0].Key()
	req := FilingsRequest{
		GSTIN:        "G1",
		Sort:         table.State{}.Toggle(table.ColTotalAmount),
		InvoiceSorts: table.Scoped{}.Set(key, table.State{}.Toggle(table.ColDate)),
		Expansion:    table.Expansion{}.Toggle(key).ToggleChild(key, filingFixture()[0].InvoiceKey(0)),
	}

	view, err := svc.Build(context.Background(), req, "/gst-filings/G1")
	require.NoError(t, err)
	require.Len(t, view.Filings, 2)

	// Ascending by total amount puts the 50 filing first.
	assert.Equal(t, "2025-02-01", view.Filings[0].FilingStartDate)
	assert.False(t, view.Filings[0].Open)
	assert.Equal(t, 0, view.Filings[0].Shown)
	assert.Equal(t, 5, view.Filings[0].InvoiceCount)
	assert.True(t, view.Filings[0].Mismatch)
	assert.True(t, view.Filings[0].InvoiceTotals.Amount.IsZero())
	assert.Equal(t, core.StatusPending, view.Filings[0].Status)

	open := view.Filings[1]
	assert.True(t, open.Open)
	require.Len(t, open.Invoices, 2)
	assert.Equal(t, "INV-1", open.Invoices[0].InvoiceID, "invoices sorted by date ascending")
	assert.False(t, open.Invoices[0].Open)
	assert.True(t, open.Invoices[1].Open)
	assert.Equal(t, "0-INV-2", open.Invoices[1].Key)
	assert.Equal(t, 2, open.Invoices[1].ProductTotals.Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(open.InvoiceTotals.Amount))

	assert.Equal(t, 2, view.Totals.Count)
	assert.True(t, decimal.NewFromInt(300).Equal(view.Totals.Amount))
}

func TestFilingsView_InvoiceSortIsPerFiling(t *testing.T) {
	a := core.Filing{GSTIN: "GA", FilingStartDate: "2025-01-01", Timeframe: "monthly", Invoices: []core.Invoice{
		{InvoiceID: "a1", Amount: "10"}, {InvoiceID: "a2", Amount: "20"},
	}}
	b := core.Filing{GSTIN: "GB", FilingStartDate: "2025-01-01", Timeframe: "monthly", Invoices: []core.Invoice{
		{InvoiceID: "b1", Amount: "10"}, {InvoiceID: "b2", Amount: "20"},
	}}
	desc := table.State{}.Toggle(table.ColAmount).Toggle(table.ColAmount)

	rows, _ := ShapeFilings([]core.Filing{a, b}, FilingsRequest{
		InvoiceSorts: table.Scoped{}.Set(a.Key(), desc),
		Expansion:    table.Expansion{}.Toggle(a.Key()).Toggle(b.Key()),
	})
	require.Len(t, rows, 2)

	invoiceIDs := func(r FilingRow) []string {
		var out []string
		for _, inv := range r.Invoices {
			out = append(out, inv.InvoiceID)
		}
		return out
	}
	assert.Equal(t, []string{"a2", "a1"}, invoiceIDs(rows[0]))
	assert.Equal(t, []string{"b1", "b2"}, invoiceIDs(rows[1]), "the other filing keeps its own order")

	assert.True(t, rows[0].InvoiceHeaders()[2].Active)
	assert.False(t, rows[1].InvoiceHeaders()[2].Active)
}

func TestFilingsView_DuplicateInvoiceIDsExpandSeparately(t *testing.T) {
	f := core.Filing{GSTIN: "G", FilingStartDate: "2025-01-01", Timeframe: "monthly", Invoices: []core.Invoice{
		{InvoiceID: "dup", Amount: "20"}, {InvoiceID: "dup", Amount: "10"},
	}}
	e := table.Expansion{}.Toggle(f.Key()).ToggleChild(f.Key(), f.InvoiceKey(1))

	rows, _ := ShapeFilings([]core.Filing{f}, FilingsRequest{
		InvoiceSorts: table.Scoped{}.Set(f.Key(), table.State{}.Toggle(table.ColAmount)),
		Expansion:    e,
	})
	require.Len(t, rows[0].Invoices, 2)

	// Ascending puts the second invoice first; the open flag follows it.
	first, second := rows[0].Invoices[0], rows[0].Invoices[1]
	assert.Equal(t, "1-dup", first.Key)
	assert.True(t, first.Open)
	assert.Equal(t, "0-dup", second.Key)
	assert.False(t, second.Open)
}

func TestFilingsView_EmptyEmbeddedInvoices(t *testing.T) {
	f := core.Filing{GSTIN: "G", FilingStartDate: "2025-01-01", Timeframe: "monthly", InvoiceCount: 5, Invoices: []core.Invoice{}}
	rows, totals := ShapeFilings([]core.Filing{f}, FilingsRequest{Expansion: table.Expansion{}.Toggle(f.Key())})

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Open)
	assert.Equal(t, 0, rows[0].Shown)
	assert.Empty(t, rows[0].Invoices)
	assert.Equal(t, 0, totals.Count)
	assert.True(t, totals.Amount.IsZero())
	assert.True(t, totals.NetAmount.IsZero())
}

func TestFilingsView_All(t *testing.T) {
	svc := NewFilingService(memory.New(memory.Data{Filings: filingFixture()}))
	view, err := svc.Build(context.Background(), FilingsRequest{}, "/all-filings")
	require.NoError(t, err)
	assert.True(t, view.All)
	assert.Len(t, view.Filings, 3)
	assert.Equal(t, core.StatusFailure, view.Filings[2].Status)
}

func TestFilingsView_ExpansionDoesNotChangeTotals(t *testing.T) {
	filings := filingFixture()
	_, closed := ShapeFilings(filings, FilingsRequest{})
	key := filings[0].Key()
	_, opened := ShapeFilings(filings, FilingsRequest{Expansion: table.Expansion{}.Toggle(key)})

	assert.Equal(t, closed, opened)
	assert.Equal(t, filingFixture(), filings)
}

func TestFilingsView_Headers(t *testing.T) {
	view := FilingsView{Sort: table.State{}.Toggle(table.ColDueDate)}
	hs := view.FilingHeaders()
	require.Len(t, hs, len(FilingColumns))
	assert.True(t, hs[0].Active)
	assert.False(t, hs[1].Sortable, "period is display-only")

	row := FilingRow{InvoiceSort: table.State{}.Toggle(table.ColAmount)}
	ih := row.InvoiceHeaders()
	assert.False(t, ih[len(ih)-1].Sortable)
	assert.True(t, ih[2].Active)
	assert.Equal(t, table.ColAmount, ih[2].Column)
}

type failingSource struct {
	api.Source
	failBalance, failLedger, failNotes error
}

func (f failingSource) GetBalance(ctx context.Context, gstin string) (core.Balance, error) {
	if f.failBalance != nil {
		return core.Balance{}, f.failBalance
	}
	return f.Source.GetBalance(ctx, gstin)
}

func (f failingSource) ListLedger(ctx context.Context, gstin string) ([]core.LedgerEntry, error) {
	if f.failLedger != nil {
		return nil, f.failLedger
	}
	return f.Source.ListLedger(ctx, gstin)
}

func (f failingSource) ListCreditNotes(ctx context.Context, gstin string) ([]core.CreditNote, error) {
	if f.failNotes != nil {
		return nil, f.failNotes
	}
	return f.Source.ListCreditNotes(ctx, gstin)
}

func detailsFixture() *memory.Store {
	return memory.New(memory.Data{
		Vendors:  []core.Vendor{{GSTIN: "G1", Name: "Acme"}},
		Balances: []core.Balance{{GSTIN: "G1", IGSTBalance: "100", CGSTBalance: "50.5", SGSTBalance: "50.5"}},
		Ledger: []core.LedgerEntry{
			{ID: 1, GSTIN: "G1", TxnType: "credit", IGST: "100", TxnDate: "2025-01-10"},
			{ID: 2, GSTIN: "G1", TxnType: "DEBIT", IGST: "40", TxnDate: "2025-01-05"},
		},
		CreditNotes: []core.CreditNote{
			{ID: 9, GSTIN: "G1", Amount: "10", NetAmount: "11.8", CGST: "0.9", SGST: "0.9"},
		},
	})
}

func TestVendorDetails_AllParts(t *testing.T) {
	store := detailsFixture()
	svc := NewDetailsService(store, NewVendorService(store, false, nil), nil)

	d, err := svc.Build(context.Background(), DetailsRequest{
		GSTIN:      "G1",
		Tab:        "ledger",
		LedgerSort: table.State{}.Toggle(table.ColDate),
	}, "/vendor-details/G1")
	require.NoError(t, err)

	assert.True(t, d.VendorKnown)
	assert.Equal(t, "Acme", d.Vendor.Name)
	assert.Equal(t, TabLedger, d.Tab)
	assert.True(t, decimal.NewFromInt(201).Equal(d.BalanceTotal))
	require.Len(t, d.Ledger.Data, 2)
	assert.Equal(t, int64(2), d.Ledger.Data[0].ID, "ledger sorted by date ascending")
	assert.True(t, decimal.NewFromInt(60).Equal(d.LedgerTotals.Net.IGST))
	assert.True(t, decimal.RequireFromString("11.8").Equal(d.CreditNet))
	assert.False(t, d.Failed())
	assert.NoError(t, d.Err())
	assert.Contains(t, d.Links.Self(), "tab=ledger")
}

func TestVendorDetails_PartialFailure(t *testing.T) {
	store := detailsFixture()
	boom := &api.RequestFailedError{Resource: api.ResourceLedger, StatusCode: 500}
	src := failingSource{Source: store, failLedger: boom}
	var logs bytes.Buffer
	svc := NewDetailsService(src, nil, log.New(log.Config{Format: "json", Output: &logs}))

	d, err := svc.Build(context.Background(), DetailsRequest{GSTIN: "G1"}, "/vendor-details/G1")
	require.NoError(t, err)

	assert.True(t, d.Balance.OK())
	assert.True(t, d.CreditNotes.OK())
	assert.False(t, d.Ledger.OK())
	assert.ErrorIs(t, d.Ledger.Err, api.ErrRequestFailed)
	assert.Equal(t, 0, d.LedgerTotals.Entries)
	assert.False(t, d.Failed())
	assert.Equal(t, TabBalance, d.Tab)
	assert.False(t, d.VendorKnown)

	out := logs.String()
	assert.Contains(t, out, `"msg":"Upstream request failed"`)
	assert.Contains(t, out, `"resource":"ledger"`)
	assert.Contains(t, out, `"gstin":"G1"`)
	assert.NotContains(t, out, `"resource":"balance"`, "parts that loaded are not logged")
}

func TestVendorDetails_AllFail(t *testing.T) {
	err := errors.New("down")
	svc := NewDetailsService(failingSource{Source: detailsFixture(), failBalance: err, failLedger: err, failNotes: err}, nil, nil)

	d, buildErr := svc.Build(context.Background(), DetailsRequest{GSTIN: "G1"}, "/x")
	require.NoError(t, buildErr)
	assert.True(t, d.Failed())
	assert.Error(t, d.Err())
}

func TestVendorDetails_MissingBalanceOnly(t *testing.T) {
	store := detailsFixture()
	svc := NewDetailsService(store, nil, nil)

	d, err := svc.Build(context.Background(), DetailsRequest{GSTIN: "G9"}, "/x")
	require.NoError(t, err)
	assert.Equal(t, 404, api.StatusCode(d.Balance.Err))
	assert.True(t, d.Ledger.OK())
	assert.Empty(t, d.Ledger.Data)
}

func TestVendorDetails_EmptyGSTIN(t *testing.T) {
	svc := NewDetailsService(detailsFixture(), nil, nil)
	_, err := svc.Build(context.Background(), DetailsRequest{}, "/x")
	assert.ErrorIs(t, err, core.ErrEmptyGSTIN)
}

func TestInflight_NewerRequestCancelsOlder(t *testing.T) {
	in := NewInflight()
	key := Key("sid", "filings")

	ctx1, t1 := in.Begin(context.Background(), key)
	ctx2, t2 := in.Begin(context.Background(), key)

	assert.ErrorIs(t, context.Cause(ctx1), ErrStale)
	assert.NoError(t, ctx2.Err())
	assert.False(t, t1.Current())
	assert.True(t, t2.Current())
	assert.Greater(t, t2.Generation(), t1.Generation())

	// A stale ticket finishing must not evict the current one.
	t1.Done()
	assert.True(t, t2.Current())
	assert.Equal(t, 1, in.Len())

	t2.Done()
	assert.Equal(t, 0, in.Len())
	assert.Error(t, ctx2.Err())

	// Old tickets stay stale after the key is released and reused.
	_, t3 := in.Begin(context.Background(), key)
	defer t3.Done()
	assert.False(t, t1.Current())
	assert.True(t, t3.Current())
}

func TestInflight_KeysAreIndependent(t *testing.T) {
	in := NewInflight()
	ctxA, a := in.Begin(context.Background(), Key("s1", "v"))
	_, b := in.Begin(context.Background(), Key("s2", "v"))
	defer a.Done()
	defer b.Done()

	assert.NoError(t, ctxA.Err())
	assert.True(t, a.Current())
	assert.True(t, b.Current())
}

func TestInflight_Concurrent(t *testing.T) {
	in := NewInflight()
	var wg sync.WaitGroup
	current := make(chan Ticket, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, tk := in.Begin(context.Background(), "k")
			current <- tk
		}()
	}
	wg.Wait()
	close(current)

	n := 0
	for tk := range current {
		if tk.Current() {
			n++
		}
	}
	assert.Equal(t, 1, n, "exactly one generation survives")
}

func TestLinks(t *testing.T) {
	l := Links{
		Path:      "/gst-filings/G1",
		Sorts:     map[string]table.State{ParamSort: table.State{}.Toggle(table.ColDueDate)},
		Scoped:    map[string]table.Scoped{ParamInvoiceSort: {}},
		Expansion: table.Expansion{}.Toggle("k1"),
	}

	self, err := url.Parse(l.Self())
	require.NoError(t, err)
	assert.Equal(t, "due_date.asc", self.Query().Get(ParamSort))
	assert.Equal(t, "k1", self.Query().Get(table.ParamOpen))
	assert.False(t, self.Query().Has(ParamInvoiceSort))

	collapsed, err := url.Parse(l.Toggle("k1"))
	require.NoError(t, err)
	assert.False(t, collapsed.Query().Has(table.ParamOpen))
	assert.Equal(t, "due_date.asc", collapsed.Query().Get(ParamSort), "toggling keeps the sort")

	sorted, err := url.Parse(l.Sort(ParamSort, "penalty.asc,due_date.asc"))
	require.NoError(t, err)
	assert.Equal(t, "penalty.asc,due_date.asc", sorted.Query().Get(ParamSort))
	assert.Equal(t, "k1", sorted.Query().Get(table.ParamOpen), "sorting keeps expansion")

	child, err := url.Parse(l.ToggleChild("k1", "INV-1"))
	require.NoError(t, err)
	assert.Equal(t, "k1::INV-1", child.Query().Get(table.ParamItem))

	assert.Equal(t, "/x", Links{Path: "/x"}.Self())
}

func TestLinks_SortInKeepsOtherInstances(t *testing.T) {
	l := Links{
		Path:   "/all-filings",
		Scoped: map[string]table.Scoped{ParamInvoiceSort: table.Scoped{}.Set("b", table.State{}.Toggle(table.ColDate))},
	}

	u, err := url.Parse(l.SortIn(ParamInvoiceSort, "a", "amount.desc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a::amount.desc", "b::date.asc"}, u.Query()[ParamInvoiceSort])

	// The receiver is untouched.
	assert.Len(t, l.Scoped[ParamInvoiceSort], 1)

	cleared, err := url.Parse(l.SortIn(ParamInvoiceSort, "b", ""))
	require.NoError(t, err)
	assert.False(t, cleared.Query().Has(ParamInvoiceSort))

	fresh, err := url.Parse(Links{Path: "/x"}.SortIn(ParamInvoiceSort, "a", "amount.asc"))
	require.NoError(t, err)
	assert.Equal(t, "a::amount.asc", fresh.Query().Get(ParamInvoiceSort))
}
