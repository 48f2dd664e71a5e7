// Package api talks to the upstream GST service and defines the source
// ports the dashboard reads through.
package api

import (
	"context"

	"gstdash/internal/core"
)

// Ports for upstream data. Each call is independent; no consistency is
// guaranteed between calls.
type (
	VendorSource interface {
		ListVendors(ctx context.Context) ([]core.Vendor, error)
		// ListVendorsPage returns one server-side page, numbered from 1.
		ListVendorsPage(ctx context.Context, page int) (core.Page[core.Vendor], error)
	}

	FilingSource interface {
		ListFilingsByVendor(ctx context.Context, gstin string) ([]core.Filing, error)
		ListAllFilings(ctx context.Context) ([]core.Filing, error)
	}

	LedgerSource interface {
		ListLedger(ctx context.Context, gstin string) ([]core.LedgerEntry, error)
		GetBalance(ctx context.Context, gstin string) (core.Balance, error)
		ListCreditNotes(ctx context.Context, gstin string) ([]core.CreditNote, error)
	}

	Source interface {
		VendorSource
		FilingSource
		LedgerSource
	}
)

// Resource names, used in errors and logs.
const (
	ResourceVendors     = "vendors"
	ResourceFilings     = "filings"
	ResourceLedger      = "ledger"
	ResourceBalance     = "balance"
	ResourceCreditNotes = "credit_notes"
)
