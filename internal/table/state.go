// Package table holds the sort and expansion state of the dashboard's
// tables and applies it to rows.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is the sort direction of one column.
type Direction int

const (
	Unset Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return ""
	}
}

// Next is the direction after one click: Unset and Desc go to Asc, Asc
// goes to Desc. A column never returns to Unset.
func (d Direction) Next() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

func parseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "asc":
		return Asc, true
	case "desc":
		return Desc, true
	}
	return Unset, false
}

// Column names a sortable column.
type Column string

var ErrUnknownColumn = errors.New("unknown sort column")

// State is the sort state of one table instance. The zero value is
// unsorted.
type State struct {
	active Column
	dirs   map[Column]Direction
	// order keeps columns in most-recently-toggled order for Encode.
	order []Column
}

// Active returns the column currently driving the sort, or "".
func (s State) Active() Column { return s.active }

// Direction returns the remembered direction of col.
func (s State) Direction(col Column) Direction { return s.dirs[col] }

// ActiveDirection is the direction the rows are sorted in.
func (s State) ActiveDirection() Direction {
	if s.active == "" {
		return Unset
	}
	return s.dirs[s.active]
}

// Toggle returns the state after a click on col: col becomes active and
// its direction advances. Other columns keep their remembered direction.
func (s State) Toggle(col Column) State {
	next := State{active: col, dirs: make(map[Column]Direction, len(s.dirs)+1)}
	for k, v := range s.dirs {
		next.dirs[k] = v
	}
	next.dirs[col] = s.dirs[col].Next()

	next.order = append(next.order, col)
	for _, c := range s.order {
		if c != col {
			next.order = append(next.order, c)
		}
	}
	return next
}

// Encode renders the state as "col.dir,col.dir" with the active column
// first. The unsorted state encodes to "".
func (s State) Encode() string {
	parts := make([]string, 0, len(s.order))
	for _, c := range s.order {
		if d := s.dirs[c]; d != Unset {
			parts = append(parts, string(c)+"."+d.String())
		}
	}
	return strings.Join(parts, ",")
}

// ParseState decodes Encode's format. Columns not in known are rejected
// with ErrUnknownColumn; malformed entries are an error too.
func ParseState(raw string, known func(Column) bool) (State, error) {
	var s State
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s, nil
	}
	s.dirs = map[Column]Direction{}
	for _, part := range strings.Split(raw, ",") {
		name, dir, ok := strings.Cut(strings.TrimSpace(part), ".")
		if !ok {
			return State{}, fmt.Errorf("sort %q: missing direction", part)
		}
		col := Column(name)
		if known != nil && !known(col) {
			return State{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		d, ok := parseDirection(dir)
		if !ok {
			return State{}, fmt.Errorf("sort %q: bad direction %q", part, dir)
		}
		if _, dup := s.dirs[col]; dup {
			continue
		}
		s.dirs[col] = d
		s.order = append(s.order, col)
	}
	s.active = s.order[0]
	return s, nil
}
