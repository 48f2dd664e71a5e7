package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstdash/internal/cache"
	"gstdash/internal/core"
)

type countingSource struct {
	calls map[string]int
	fail  error
}

func newCountingSource() *countingSource {
	return &countingSource{calls: map[string]int{}}
}

func (s *countingSource) hit(name string) error {
	s.calls[name]++
	return s.fail
}

func (s *countingSource) ListVendors(context.Context) ([]core.Vendor, error) {
	if err := s.hit("vendors"); err != nil {
		return nil, err
	}
	return []core.Vendor{{GSTIN: "G1"}}, nil
}

func (s *countingSource) ListVendorsPage(_ context.Context, page int) (core.Page[core.Vendor], error) {
	if err := s.hit("page"); err != nil {
		return core.Page[core.Vendor]{}, err
	}
	return core.Page[core.Vendor]{Number: page, TotalCount: 1, PageSize: 10}, nil
}

func (s *countingSource) ListFilingsByVendor(_ context.Context, gstin string) ([]core.Filing, error) {
	if err := s.hit("filings:" + gstin); err != nil {
		return nil, err
	}
	return []core.Filing{{GSTIN: gstin}}, nil
}

func (s *countingSource) ListAllFilings(context.Context) ([]core.Filing, error) {
	if err := s.hit("all-filings"); err != nil {
		return nil, err
	}
	return []core.Filing{{GSTIN: "G1"}, {GSTIN: "G2"}}, nil
}

func (s *countingSource) ListLedger(_ context.Context, gstin string) ([]core.LedgerEntry, error) {
	return nil, s.hit("ledger")
}

func (s *countingSource) GetBalance(_ context.Context, gstin string) (core.Balance, error) {
	return core.Balance{GSTIN: gstin}, s.hit("balance")
}

func (s *countingSource) ListCreditNotes(_ context.Context, gstin string) ([]core.CreditNote, error) {
	return nil, s.hit("credit-notes")
}

func TestCachedSource_MemoizesSuccess(t *testing.T) {
	next := newCountingSource()
	s := NewCachedSource(next, time.Minute, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.ListFilingsByVendor(ctx, "G1")
		require.NoError(t, err)
	}
	_, err := s.ListFilingsByVendor(ctx, "G2")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls["filings:G1"])
	assert.Equal(t, 1, next.calls["filings:G2"])
}

func TestCachedSource_AllFilingsDoNotCollideWithVendor(t *testing.T) {
	next := newCountingSource()
	s := NewCachedSource(next, time.Minute, nil, nil)
	ctx := context.Background()

	one, err := s.ListFilingsByVendor(ctx, "G1")
	require.NoError(t, err)
	all, err := s.ListAllFilings(ctx)
	require.NoError(t, err)

	assert.Len(t, one, 1)
	assert.Len(t, all, 2)
}

func TestCachedSource_DoesNotCacheFailures(t *testing.T) {
	next := newCountingSource()
	next.fail = errors.New("upstream down")
	s := NewCachedSource(next, time.Minute, nil, nil)
	ctx := context.Background()

	_, err := s.GetBalance(ctx, "G1")
	require.Error(t, err)
	next.fail = nil
	b, err := s.GetBalance(ctx, "G1")
	require.NoError(t, err)

	assert.Equal(t, "G1", b.GSTIN)
	assert.Equal(t, 2, next.calls["balance"])
}

func TestCachedSource_PagesKeyedByNumber(t *testing.T) {
	next := newCountingSource()
	s := NewCachedSource(next, time.Minute, nil, nil)
	ctx := context.Background()

	p1, _ := s.ListVendorsPage(ctx, 1)
	p2, _ := s.ListVendorsPage(ctx, 2)
	_, _ = s.ListVendorsPage(ctx, 1)

	assert.Equal(t, 1, p1.Number)
	assert.Equal(t, 2, p2.Number)
	assert.Equal(t, 2, next.calls["page"])
}

func TestCachedSource_RegistersWithManager(t *testing.T) {
	m := cache.NewManager()
	defer m.Stop()

	s := NewCachedSource(newCountingSource(), time.Millisecond, m, nil)
	_, err := s.ListVendors(context.Background())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, m.Sweep())
}
