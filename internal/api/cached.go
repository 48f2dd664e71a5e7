package api

import (
	"context"
	"strconv"
	"time"

	"gstdash/internal/cache"
	"gstdash/internal/core"
	"gstdash/internal/log"
)

const cacheEntries = 256

// CachedSource memoizes successful upstream reads for a fixed TTL.
// Failures are never cached.
type CachedSource struct {
	next        Source
	logger      *log.Logger
	vendors     *cache.LRUCache[[]core.Vendor]
	vendorPages *cache.LRUCache[core.Page[core.Vendor]]
	filings     *cache.LRUCache[[]core.Filing]
	ledger      *cache.LRUCache[[]core.LedgerEntry]
	balances    *cache.LRUCache[core.Balance]
	creditNotes *cache.LRUCache[[]core.CreditNote]
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps next. Every internal cache is registered with m
// so expired entries are swept in the background.
func NewCachedSource(next Source, ttl time.Duration, m *cache.Manager, logger *log.Logger) *CachedSource {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &CachedSource{
		next:        next,
		logger:      logger.WithComponent(log.ComponentCache),
		vendors:     cache.NewLRUCache[[]core.Vendor](1, ttl),
		vendorPages: cache.NewLRUCache[core.Page[core.Vendor]](cacheEntries, ttl),
		filings:     cache.NewLRUCache[[]core.Filing](cacheEntries, ttl),
		ledger:      cache.NewLRUCache[[]core.LedgerEntry](cacheEntries, ttl),
		balances:    cache.NewLRUCache[core.Balance](cacheEntries, ttl),
		creditNotes: cache.NewLRUCache[[]core.CreditNote](cacheEntries, ttl),
	}
	if m != nil {
		for _, c := range []cache.Cleaner{s.vendors, s.vendorPages, s.filings, s.ledger, s.balances, s.creditNotes} {
			m.Register(c)
		}
	}
	return s
}

func (s *CachedSource) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	return memo(ctx, s, s.vendors, ResourceVendors, "all", s.next.ListVendors)
}

func (s *CachedSource) ListVendorsPage(ctx context.Context, page int) (core.Page[core.Vendor], error) {
	return memo(ctx, s, s.vendorPages, ResourceVendors, strconv.Itoa(page), func(ctx context.Context) (core.Page[core.Vendor], error) {
		return s.next.ListVendorsPage(ctx, page)
	})
}

func (s *CachedSource) ListFilingsByVendor(ctx context.Context, gstin string) ([]core.Filing, error) {
	return memo(ctx, s, s.filings, ResourceFilings, gstin, func(ctx context.Context) ([]core.Filing, error) {
		return s.next.ListFilingsByVendor(ctx, gstin)
	})
}

func (s *CachedSource) ListAllFilings(ctx context.Context) ([]core.Filing, error) {
	// The empty key cannot collide with a real GSTIN.
	return memo(ctx, s, s.filings, ResourceFilings, "", s.next.ListAllFilings)
}

func (s *CachedSource) ListLedger(ctx context.Context, gstin string) ([]core.LedgerEntry, error) {
	return memo(ctx, s, s.ledger, ResourceLedger, gstin, func(ctx context.Context) ([]core.LedgerEntry, error) {
		return s.next.ListLedger(ctx, gstin)
	})
}

func (s *CachedSource) GetBalance(ctx context.Context, gstin string) (core.Balance, error) {
	return memo(ctx, s, s.balances, ResourceBalance, gstin, func(ctx context.Context) (core.Balance, error) {
		return s.next.GetBalance(ctx, gstin)
	})
}

func (s *CachedSource) ListCreditNotes(ctx context.Context, gstin string) ([]core.CreditNote, error) {
	return memo(ctx, s, s.creditNotes, ResourceCreditNotes, gstin, func(ctx context.Context) ([]core.CreditNote, error) {
		return s.next.ListCreditNotes(ctx, gstin)
	})
}

func memo[T any](ctx context.Context, s *CachedSource, c *cache.LRUCache[T], resource, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		s.logger.DebugContext(ctx, "Upstream cache hit", log.FieldResource, resource, "key", key)
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
