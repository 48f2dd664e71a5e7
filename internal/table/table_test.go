package table

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstdash/internal/core"
)

func TestToggleCycle(t *testing.T) {
	var s State
	assert.Equal(t, Unset, s.Direction(ColAmount))

	want := []Direction{Asc, Desc, Asc, Desc}
	for i, w := range want {
		s = s.Toggle(ColAmount)
		assert.Equal(t, w, s.Direction(ColAmount), "click %d", i+1)
		assert.Equal(t, ColAmount, s.Active())
	}
}

func TestToggleRemembersOtherColumns(t *testing.T) {
	s := State{}.Toggle(ColAmount).Toggle(ColAmount) // amount desc
	s = s.Toggle(ColDate)

	assert.Equal(t, ColDate, s.Active())
	assert.Equal(t, Asc, s.ActiveDirection())
	assert.Equal(t, Desc, s.Direction(ColAmount))
	assert.Equal(t, "date.asc,amount.desc", s.Encode())

	// Returning to amount continues its own cycle.
	s = s.Toggle(ColAmount)
	assert.Equal(t, Asc, s.Direction(ColAmount))
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	s := State{}.Toggle(ColAmount)
	_ = s.Toggle(ColAmount)
	assert.Equal(t, Asc, s.Direction(ColAmount))
}

func TestParseStateRoundTrip(t *testing.T) {
	s := State{}.Toggle(ColDate).Toggle(ColAmount).Toggle(ColAmount)
	raw := s.Encode()
	assert.Equal(t, "amount.desc,date.asc", raw)

	parsed, err := Invoices.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, parsed.Encode())
	assert.Equal(t, ColAmount, parsed.Active())
	assert.Equal(t, Desc, parsed.ActiveDirection())
}

func TestParseStateErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		unknown bool
	}{
		{name: "unknown column", raw: "colour.asc", unknown: true},
		{name: "missing direction", raw: "amount"},
		{name: "bad direction", raw: "amount.up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Invoices.Parse(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.unknown, errors.Is(err, ErrUnknownColumn))
			assert.Equal(t, Column(""), s.Active())
		})
	}

	s, err := Invoices.Parse("")
	require.NoError(t, err)
	assert.Equal(t, Unset, s.ActiveDirection())
}

type row struct {
	id     int
	amount core.Amount
	date   string
	name   string
}

var rowTable = New(map[Column]Comparator[row]{
	ColAmount: Number(func(r row) core.Amount { return r.amount }),
	ColDate:   Date(func(r row) string { return r.date }),
	"name":    Text(func(r row) string { return r.name }),
	"id":      Int(func(r row) int { return r.id }),
})

func ids(rows []row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func TestSortAscDescAreReverses(t *testing.T) {
	rows := make([]row, 20)
	for i := range rows {
		rows[i] = row{id: i, amount: core.Amount(fmt.Sprintf("%d.%02d", i*7%13, i))}
	}
	rand.New(rand.NewSource(1)).Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	asc := State{}.Toggle(ColAmount)
	desc := asc.Toggle(ColAmount)

	up := rowTable.Sort(rows, asc)
	down := rowTable.Sort(rows, desc)

	reversed := slices.Clone(ids(down))
	slices.Reverse(reversed)
	assert.Equal(t, ids(up), reversed)

	// Same direction again is idempotent.
	assert.Equal(t, ids(up), ids(rowTable.Sort(up, asc)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	rows := []row{{id: 2, amount: "20"}, {id: 1, amount: "10"}, {id: 3, amount: "30"}}
	before := slices.Clone(rows)

	sorted := rowTable.Sort(rows, State{}.Toggle(ColAmount))

	assert.Equal(t, before, rows)
	assert.Equal(t, []int{1, 2, 3}, ids(sorted))
}

func TestSortUnsortedKeepsOrder(t *testing.T) {
	rows := []row{{id: 3}, {id: 1}, {id: 2}}
	assert.Equal(t, []int{3, 1, 2}, ids(rowTable.Sort(rows, State{})))
	assert.NotNil(t, rowTable.Sort(nil, State{}))
}

func TestSortComparators(t *testing.T) {
	rows := []row{
		{id: 1, amount: "₹1,000.00", date: "2025-03-01", name: "beta"},
		{id: 2, amount: "null", date: "not a date", name: "Alpha"},
		{id: 3, amount: "99.5", date: "2024-12-31T23:00:00Z", name: "gamma"},
	}

	tests := []struct {
		col  Column
		want []int
	}{
		{ColAmount, []int{2, 3, 1}},
		{ColDate, []int{2, 3, 1}},
		{"name", []int{2, 1, 3}},
		{"id", []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.col), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(rowTable.Sort(rows, State{}.Toggle(tt.col))))
		})
	}
}

func TestSortIsStable(t *testing.T) {
	rows := []row{{id: 1, amount: "5"}, {id: 2, amount: "1"}, {id: 3, amount: "5"}, {id: 4, amount: "1"}}
	assert.Equal(t, []int{2, 4, 1, 3}, ids(rowTable.Sort(rows, State{}.Toggle(ColAmount))))
	assert.Equal(t, []int{1, 3, 2, 4}, ids(rowTable.Sort(rows, State{}.Toggle(ColAmount).Toggle(ColAmount))))
}

func TestHeader(t *testing.T) {
	s := State{}.Toggle(ColAmount)

	h := rowTable.Header(s, ColAmount, "Amount")
	assert.True(t, h.Active)
	assert.Equal(t, "▲", h.Indicator())
	assert.Equal(t, "amount.desc", h.Toggle)

	other := rowTable.Header(s, ColDate, "Date")
	assert.False(t, other.Active)
	assert.Equal(t, "", other.Indicator())
	assert.Equal(t, "date.asc,amount.asc", other.Toggle)

	plain := rowTable.Header(s, "state", "State")
	assert.False(t, plain.Sortable)
	assert.Empty(t, plain.Toggle)
}

func TestExpansion(t *testing.T) {
	var e Expansion
	assert.False(t, e.IsOpen("f1"))

	// Child toggles are ignored while the parent is closed.
	e = e.ToggleChild("f1", "inv1")
	assert.False(t, e.IsChildOpen("f1", "inv1"))

	e = e.Toggle("f1").ToggleChild("f1", "inv1")
	assert.True(t, e.IsOpen("f1"))
	assert.True(t, e.IsChildOpen("f1", "inv1"))

	// Collapsing the parent forgets its children.
	e = e.Toggle("f1").Toggle("f1")
	assert.True(t, e.IsOpen("f1"))
	assert.False(t, e.IsChildOpen("f1", "inv1"))
}

func TestExpansionLeavesDataUntouched(t *testing.T) {
	filings := []core.Filing{{GSTIN: "A", Invoices: []core.Invoice{{InvoiceID: "1"}}}}
	before := fmt.Sprintf("%+v", filings)

	e := Expansion{}.Toggle(filings[0].Key()).ToggleChild(filings[0].Key(), "1")
	e = e.Toggle(filings[0].Key())

	assert.Equal(t, before, fmt.Sprintf("%+v", filings))
	assert.False(t, e.IsOpen(filings[0].Key()))
}

func TestExpansionEncodeRoundTrip(t *testing.T) {
	e := Expansion{}.Toggle("b|2025-01-01|monthly").Toggle("a").ToggleChild("a", "INV-2").ToggleChild("a", "INV-1")
	q := e.Encode()

	assert.Equal(t, []string{"a", "b|2025-01-01|monthly"}, q[ParamOpen])
	assert.Equal(t, []string{"a::INV-1", "a::INV-2"}, q[ParamItem])

	back := ParseExpansion(q)
	assert.Equal(t, q, back.Encode())
}

func TestParseExpansionDropsOrphanItems(t *testing.T) {
	e := ParseExpansion(url.Values{
		ParamOpen: {"a"},
		ParamItem: {"a::1", "b::2", "malformed", "a::"},
	})
	assert.True(t, e.IsChildOpen("a", "1"))
	assert.False(t, e.IsChildOpen("b", "2"))
	assert.Equal(t, []string{"a::1"}, e.Encode()[ParamItem])
}

func TestOrderReportsInputPositions(t *testing.T) {
	rows := []row{{id: 1, amount: "30"}, {id: 2, amount: "10"}, {id: 3, amount: "20"}}
	assert.Equal(t, []int{1, 2, 0}, rowTable.Order(rows, State{}.Toggle(ColAmount)))
	assert.Equal(t, []int{0, 1, 2}, rowTable.Order(rows, State{}))
	assert.Empty(t, rowTable.Order(nil, State{}.Toggle(ColAmount)))
}

func TestScopedStatesAreIndependent(t *testing.T) {
	desc := State{}.Toggle(ColAmount).Toggle(ColAmount)
	s := Scoped{}.Set("a|2025-01-01|monthly", desc)

	assert.Equal(t, Desc, s.Get("a|2025-01-01|monthly").ActiveDirection())
	assert.Equal(t, Unset, s.Get("b|2025-01-01|monthly").ActiveDirection())

	s2 := s.Set("b|2025-01-01|monthly", State{}.Toggle(ColDate))
	assert.Len(t, s, 1, "Set copies")
	assert.Equal(t, []string{"a|2025-01-01|monthly::amount.desc", "b|2025-01-01|monthly::date.asc"}, s2.Encode())

	assert.Empty(t, s2.Set("a|2025-01-01|monthly", State{}).Set("b|2025-01-01|monthly", State{}))
}

func TestParseScoped(t *testing.T) {
	s, err := Invoices.ParseScoped([]string{
		"a::amount.desc",
		"b::date.asc,amount.asc",
		"c::bogus.asc",
		"nokey",
		"::amount.asc",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	assert.Equal(t, ColAmount, s.Get("a").Active())
	assert.Equal(t, Desc, s.Get("a").ActiveDirection())
	assert.Equal(t, ColDate, s.Get("b").Active())
	assert.Equal(t, []string{"a::amount.desc", "b::date.asc,amount.asc"}, s.Encode())

	clean, err := Invoices.ParseScoped(nil)
	require.NoError(t, err)
	assert.Empty(t, clean)
}
