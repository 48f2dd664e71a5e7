package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Scoped holds one sort State per table instance, keyed by the parent row
// that owns the table. A nested table repeated under several parents is
// sorted independently under each of them. A missing key is unsorted.
type Scoped map[string]State

// Get returns the state of the table owned by key.
func (s Scoped) Get(key string) State {
	return s[key]
}

// Set returns a copy of s with key's state replaced. An unsorted state
// removes key.
func (s Scoped) Set(key string, st State) Scoped {
	out := make(Scoped, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	if st.Encode() == "" {
		delete(out, key)
	} else {
		out[key] = st
	}
	return out
}

// Encode renders one "key::state" value per sorted instance, ordered by
// key so equal states produce equal URLs.
func (s Scoped) Encode() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if enc := s[k].Encode(); enc != "" {
			out = append(out, k+itemSep+enc)
		}
	}
	return out
}

// ParseScoped decodes Encode's values. Entries that fail to parse are
// skipped and reported together in the error; the rest are kept. A later
// value for the same key wins.
func ParseScoped(raws []string, known func(Column) bool) (Scoped, error) {
	out := Scoped{}
	var errs []error
	for _, raw := range raws {
		// The state half never contains the separator; keys might.
		i := strings.LastIndex(raw, itemSep)
		if i <= 0 {
			errs = append(errs, fmt.Errorf("scoped sort %q: missing key", raw))
			continue
		}
		key, enc := raw[:i], raw[i+len(itemSep):]
		st, err := ParseState(enc, known)
		if err != nil {
			errs = append(errs, fmt.Errorf("scoped sort for %q: %w", key, err))
			continue
		}
		out = out.Set(key, st)
	}
	return out, errors.Join(errs...)
}
