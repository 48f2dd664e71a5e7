// Package memory serves upstream data from JSON fixtures, for local runs
// and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gstdash/internal/api"
	"gstdash/internal/core"
)

// DefaultPageSize matches the upstream vendors page size.
const DefaultPageSize = 10

// Fixture file names inside the data directory.
const (
	VendorsFile     = "vendors.json"
	FilingsFile     = "filings.json"
	LedgerFile      = "ledger.json"
	BalancesFile    = "balances.json"
	CreditNotesFile = "credit_notes.json"
)

type Store struct {
	mu          sync.RWMutex
	pageSize    int
	vendors     []core.Vendor
	filings     []core.Filing
	ledger      []core.LedgerEntry
	balances    []core.Balance
	creditNotes []core.CreditNote
}

var _ api.Source = (*Store)(nil)

// Data is the full fixture set.
type Data struct {
	Vendors     []core.Vendor
	Filings     []core.Filing
	Ledger      []core.LedgerEntry
	Balances    []core.Balance
	CreditNotes []core.CreditNote
}

func New(d Data) *Store {
	return &Store{
		pageSize:    DefaultPageSize,
		vendors:     d.Vendors,
		filings:     d.Filings,
		ledger:      d.Ledger,
		balances:    d.Balances,
		creditNotes: d.CreditNotes,
	}
}

// NewFromDir loads every fixture file from base. Missing files leave the
// collection empty; malformed files are an error.
func NewFromDir(base string) (*Store, error) {
	var d Data
	files := []struct {
		name string
		dst  any
	}{
		{VendorsFile, &d.Vendors},
		{FilingsFile, &d.Filings},
		{LedgerFile, &d.Ledger},
		{BalancesFile, &d.Balances},
		{CreditNotesFile, &d.CreditNotes},
	}
	for _, f := range files {
		if err := readJSON(filepath.Join(base, f.name), f.dst); err != nil {
			return nil, err
		}
	}
	return New(d), nil
}

// WithPageSize overrides the page size used by ListVendorsPage.
func (s *Store) WithPageSize(n int) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.pageSize = n
	}
	return s
}

func (s *Store) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Vendor(nil), s.vendors...), nil
}

func (s *Store) ListVendorsPage(ctx context.Context, page int) (core.Page[core.Vendor], error) {
	if err := ctx.Err(); err != nil {
		return core.Page[core.Vendor]{}, err
	}
	if page < 1 {
		page = 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := core.Page[core.Vendor]{
		Data:       []core.Vendor{},
		TotalCount: len(s.vendors),
		PageSize:   s.pageSize,
		Number:     page,
	}
	start := (page - 1) * s.pageSize
	if start >= len(s.vendors) {
		return p, nil
	}
	end := min(start+s.pageSize, len(s.vendors))
	p.Data = append(p.Data, s.vendors[start:end]...)
	return p, nil
}

func (s *Store) ListFilingsByVendor(ctx context.Context, gstin string) ([]core.Filing, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.filings, func(f core.Filing) bool { return f.GSTIN == gstin }), nil
}

func (s *Store) ListAllFilings(ctx context.Context) ([]core.Filing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Filing(nil), s.filings...), nil
}

func (s *Store) ListLedger(ctx context.Context, gstin string) ([]core.LedgerEntry, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.ledger, func(e core.LedgerEntry) bool { return e.GSTIN == gstin }), nil
}

// GetBalance mirrors the upstream 404 when no balance row exists.
func (s *Store) GetBalance(ctx context.Context, gstin string) (core.Balance, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return core.Balance{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Balance{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.balances {
		if b.GSTIN == gstin {
			return b, nil
		}
	}
	return core.Balance{}, &api.RequestFailedError{
		Resource:   api.ResourceBalance,
		URL:        "memory://ledger/balance/" + gstin,
		StatusCode: http.StatusNotFound,
	}
}

func (s *Store) ListCreditNotes(ctx context.Context, gstin string) ([]core.CreditNote, error) {
	if err := core.ValidateGSTIN(gstin); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.creditNotes, func(c core.CreditNote) bool { return c.GSTIN == gstin }), nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return nil
}
