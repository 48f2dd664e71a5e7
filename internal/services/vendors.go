// Package services builds the dashboard's view models from upstream data.
// Builders own the snapshot they fetch; nothing is shared between requests
// except the Inflight registry.
package services

import (
	"context"
	"fmt"
	"strings"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/log"
)

// VendorList is one page of the vendor master list.
type VendorList struct {
	Rows       []core.Vendor
	Filter     string
	Paginated  bool
	Page       int
	TotalPages int
	TotalCount int
	PageSize   int
	// Loaded is the number of vendors on the page before filtering.
	Loaded     int
	HasPrev    bool
	HasNext    bool
	OutOfRange bool
	LastPage   int
}

// VendorSelector is the full, filtered vendor list used to pick a vendor.
type VendorSelector struct {
	Rows   []core.Vendor
	Filter string
	Total  int
}

type VendorService struct {
	src       api.VendorSource
	paginated bool
	logger    *log.Logger
}

func NewVendorService(src api.VendorSource, paginated bool, logger *log.Logger) *VendorService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &VendorService{src: src, paginated: paginated, logger: logger.WithComponent(log.ComponentView)}
}

func (s *VendorService) Paginated() bool { return s.paginated }

// List loads one page (or everything when pagination is off) and applies
// filter to the loaded rows only. A page past the end yields an empty list
// with LastPage set, never an error.
func (s *VendorService) List(ctx context.Context, page int, filter string) (VendorList, error) {
	filter = strings.TrimSpace(filter)
	if !s.paginated {
		vendors, err := s.src.ListVendors(ctx)
		if err != nil {
			return VendorList{Filter: filter}, fmt.Errorf("list vendors: %w", err)
		}
		rows := filterVendors(vendors, filter)
		out := VendorList{
			Rows:       rows,
			Filter:     filter,
			Page:       1,
			TotalCount: len(vendors),
			PageSize:   len(vendors),
			Loaded:     len(vendors),
		}
		if len(vendors) > 0 {
			out.TotalPages, out.LastPage = 1, 1
		}
		return out, nil
	}

	if page < 1 {
		page = 1
	}
	p, err := s.src.ListVendorsPage(ctx, page)
	if err != nil {
		return VendorList{Filter: filter, Paginated: true, Page: page}, fmt.Errorf("list vendors page %d: %w", page, err)
	}
	p.Number = page

	out := VendorList{
		Filter:     filter,
		Paginated:  true,
		Page:       page,
		TotalPages: p.TotalPages(),
		TotalCount: p.TotalCount,
		PageSize:   p.PageSize,
		LastPage:   p.TotalPages(),
	}
	if p.OutOfRange() {
		s.logger.DebugContext(ctx, "Vendor page out of range",
			log.FieldOperation, log.OpList, log.FieldPage, page, "total_pages", out.TotalPages)
		out.OutOfRange = true
		out.Rows = []core.Vendor{}
		out.HasPrev = out.TotalPages > 0
		return out, nil
	}
	out.Loaded = len(p.Data)
	out.Rows = filterVendors(p.Data, filter)
	out.HasPrev = page > 1
	out.HasNext = page < out.TotalPages
	return out, nil
}

// Selector returns every vendor matching filter.
func (s *VendorService) Selector(ctx context.Context, filter string) (VendorSelector, error) {
	filter = strings.TrimSpace(filter)
	vendors, err := s.src.ListVendors(ctx)
	if err != nil {
		return VendorSelector{Filter: filter}, fmt.Errorf("list vendors: %w", err)
	}
	return VendorSelector{
		Rows:   filterVendors(vendors, filter),
		Filter: filter,
		Total:  len(vendors),
	}, nil
}

// Find looks gstin up in the full vendor listing.
func (s *VendorService) Find(ctx context.Context, gstin string) (core.Vendor, bool, error) {
	vendors, err := s.src.ListVendors(ctx)
	if err != nil {
		return core.Vendor{}, false, err
	}
	for _, v := range vendors {
		if v.GSTIN == gstin {
			return v, true, nil
		}
	}
	return core.Vendor{}, false, nil
}

func filterVendors(in []core.Vendor, q string) []core.Vendor {
	out := make([]core.Vendor, 0, len(in))
	for _, v := range in {
		if v.Matches(q) {
			out = append(out, v)
		}
	}
	return out
}
