package table

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"gstdash/internal/core"
)

// Comparator orders two rows by one column, ascending.
type Comparator[T any] func(a, b T) int

// Number compares decimal amounts. Unparsable amounts compare as zero.
func Number[T any](f func(T) core.Amount) Comparator[T] {
	return func(a, b T) int {
		return f(a).Decimal().Cmp(f(b).Decimal())
	}
}

// Date compares parsed timestamps. Unparsable dates sort as the zero time.
func Date[T any](f func(T) string) Comparator[T] {
	return func(a, b T) int {
		return parsedTime(f(a)).Compare(parsedTime(f(b)))
	}
}

// Text compares case-insensitively.
func Text[T any](f func(T) string) Comparator[T] {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(f(a)), strings.ToLower(f(b)))
	}
}

func Int[T any](f func(T) int) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(f(a), f(b)) }
}

func parsedTime(s string) time.Time {
	t, ok := core.ParseTime(s)
	if !ok {
		return time.Time{}
	}
	return t
}

// Table sorts rows of T by a fixed set of columns.
type Table[T any] struct {
	cols map[Column]Comparator[T]
}

// New builds a table from its comparator set. The map is copied.
func New[T any](cols map[Column]Comparator[T]) *Table[T] {
	t := &Table[T]{cols: make(map[Column]Comparator[T], len(cols))}
	for k, v := range cols {
		t.cols[k] = v
	}
	return t
}

// Has reports whether col is sortable in this table.
func (t *Table[T]) Has(col Column) bool {
	_, ok := t.cols[col]
	return ok
}

// Columns lists the sortable columns in name order.
func (t *Table[T]) Columns() []Column {
	out := make([]Column, 0, len(t.cols))
	for c := range t.cols {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Parse decodes a sort query parameter against this table's columns.
func (t *Table[T]) Parse(raw string) (State, error) {
	return ParseState(raw, t.Has)
}

// Sort returns a stably sorted copy of rows. With no active column the copy
// keeps the input order. rows is never modified.
func (t *Table[T]) Sort(rows []T, s State) []T {
	out := make([]T, len(rows))
	for i, j := range t.Order(rows, s) {
		out[i] = rows[j]
	}
	return out
}

// Order returns the positions of rows in sorted order, so a caller can
// tell where each sorted row sat in the input.
func (t *Table[T]) Order(rows []T, s State) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	cmpFn, ok := t.cols[s.Active()]
	if !ok {
		return idx
	}
	dir := s.ActiveDirection()
	if dir == Unset {
		return idx
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if dir == Desc {
			return cmpFn(rows[b], rows[a])
		}
		return cmpFn(rows[a], rows[b])
	})
	return idx
}

// ParseScoped decodes repeated scoped sort values against this table's
// columns.
func (t *Table[T]) ParseScoped(raws []string) (Scoped, error) {
	return ParseScoped(raws, t.Has)
}

// Header describes one column heading: its current direction and the
// encoded state a click on it produces.
type Header struct {
	Column    Column
	Label     string
	Sortable  bool
	Active    bool
	Direction Direction
	Toggle    string
}

// Header builds the heading for col under state s.
func (t *Table[T]) Header(s State, col Column, label string) Header {
	h := Header{Column: col, Label: label, Sortable: t.Has(col)}
	if !h.Sortable {
		return h
	}
	h.Active = s.Active() == col
	if h.Active {
		h.Direction = s.ActiveDirection()
	}
	h.Toggle = s.Toggle(col).Encode()
	return h
}

// Indicator is the arrow shown next to an active heading.
func (h Header) Indicator() string {
	switch {
	case !h.Active:
		return ""
	case h.Direction == Asc:
		return "▲"
	case h.Direction == Desc:
		return "▼"
	}
	return ""
}
