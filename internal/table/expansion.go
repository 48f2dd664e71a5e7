package table

import (
	"net/url"
	"slices"
	"strings"
)

// Query parameter names carrying expansion state.
const (
	ParamOpen = "open"
	ParamItem = "item"
)

const itemSep = "::"

// Expansion records which parent rows are open and, under each open
// parent, which child rows are open. It never affects the data shown,
// only what is visible. The zero value has everything collapsed.
type Expansion struct {
	open map[string]map[string]struct{}
}

func (e Expansion) IsOpen(parent string) bool {
	_, ok := e.open[parent]
	return ok
}

func (e Expansion) IsChildOpen(parent, child string) bool {
	children, ok := e.open[parent]
	if !ok {
		return false
	}
	_, ok = children[child]
	return ok
}

func (e Expansion) clone() Expansion {
	out := Expansion{open: make(map[string]map[string]struct{}, len(e.open)+1)}
	for p, children := range e.open {
		cs := make(map[string]struct{}, len(children))
		for c := range children {
			cs[c] = struct{}{}
		}
		out.open[p] = cs
	}
	return out
}

// Toggle opens or closes parent. Closing drops the parent's child state.
func (e Expansion) Toggle(parent string) Expansion {
	out := e.clone()
	if _, ok := out.open[parent]; ok {
		delete(out.open, parent)
	} else {
		out.open[parent] = map[string]struct{}{}
	}
	return out
}

// ToggleChild opens or closes child under parent. It does nothing while
// parent is closed.
func (e Expansion) ToggleChild(parent, child string) Expansion {
	if !e.IsOpen(parent) {
		return e
	}
	out := e.clone()
	if _, ok := out.open[parent][child]; ok {
		delete(out.open[parent], child)
	} else {
		out.open[parent][child] = struct{}{}
	}
	return out
}

// Encode renders the state as open= and item= values, sorted so equal
// states produce equal URLs.
func (e Expansion) Encode() url.Values {
	v := url.Values{}
	parents := make([]string, 0, len(e.open))
	for p := range e.open {
		parents = append(parents, p)
	}
	slices.Sort(parents)
	for _, p := range parents {
		v.Add(ParamOpen, p)
		children := make([]string, 0, len(e.open[p]))
		for c := range e.open[p] {
			children = append(children, c)
		}
		slices.Sort(children)
		for _, c := range children {
			v.Add(ParamItem, p+itemSep+c)
		}
	}
	return v
}

// ParseExpansion reads open= and item= from q. Items whose parent is not
// open are dropped.
func ParseExpansion(q url.Values) Expansion {
	e := Expansion{open: map[string]map[string]struct{}{}}
	for _, p := range q[ParamOpen] {
		if p != "" {
			e.open[p] = map[string]struct{}{}
		}
	}
	for _, item := range q[ParamItem] {
		p, c, ok := strings.Cut(item, itemSep)
		if !ok || c == "" {
			continue
		}
		if children, open := e.open[p]; open {
			children[c] = struct{}{}
		}
	}
	return e
}
