package services

import (
	"net/url"

	"gstdash/internal/table"
)

// Query parameter names shared by the views and their handlers.
const (
	ParamSort        = "sort"
	ParamInvoiceSort = "isort"
	ParamLedgerSort  = "lsort"
	ParamCreditSort  = "csort"
	ParamTab         = "tab"
	ParamPage        = "page"
	ParamFilter      = "q"
)

// Links renders URLs for the next state of a view. All state lives in the
// query string, so every link is a plain GET.
type Links struct {
	Path  string
	Sorts map[string]table.State
	// Scoped carries per-instance sort states, one value per instance.
	Scoped    map[string]table.Scoped
	Expansion table.Expansion
	Extra     url.Values
}

func (l Links) values() url.Values {
	v := l.Expansion.Encode()
	for k, vals := range l.Extra {
		for _, s := range vals {
			v.Add(k, s)
		}
	}
	for param, s := range l.Sorts {
		if enc := s.Encode(); enc != "" {
			v.Set(param, enc)
		}
	}
	for param, sc := range l.Scoped {
		for _, enc := range sc.Encode() {
			v.Add(param, enc)
		}
	}
	return v
}

func (l Links) build(v url.Values) string {
	if len(v) == 0 {
		return l.Path
	}
	return l.Path + "?" + v.Encode()
}

// Self is the URL of the current state.
func (l Links) Self() string {
	return l.build(l.values())
}

// Sort returns the URL after toggling encoded on the table behind param.
// encoded is a table.Header.Toggle value.
func (l Links) Sort(param, encoded string) string {
	v := l.values()
	if encoded == "" {
		v.Del(param)
	} else {
		v.Set(param, encoded)
	}
	return l.build(v)
}

// SortIn returns the URL after toggling encoded on the table owned by key
// under param. Tables owned by other keys keep their state.
func (l Links) SortIn(param, key, encoded string) string {
	st, err := table.ParseState(encoded, nil)
	if err != nil {
		return l.Self()
	}
	next := l
	next.Scoped = make(map[string]table.Scoped, len(l.Scoped)+1)
	for p, sc := range l.Scoped {
		next.Scoped[p] = sc
	}
	next.Scoped[param] = l.Scoped[param].Set(key, st)
	return next.Self()
}

// Toggle returns the URL with parent expanded or collapsed.
func (l Links) Toggle(parent string) string {
	next := l
	next.Expansion = l.Expansion.Toggle(parent)
	return next.Self()
}

// ToggleChild returns the URL with child under parent expanded or collapsed.
func (l Links) ToggleChild(parent, child string) string {
	next := l
	next.Expansion = l.Expansion.ToggleChild(parent, child)
	return next.Self()
}

// With returns the URL with key set to value, keeping everything else.
func (l Links) With(key, value string) string {
	v := l.values()
	if value == "" {
		v.Del(key)
	} else {
		v.Set(key, value)
	}
	return l.build(v)
}
