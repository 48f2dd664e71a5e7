package core

import "github.com/shopspring/decimal"

// InvoiceTotals is the footer row of an invoice table.
type InvoiceTotals struct {
	Count       int
	Amount      decimal.Decimal
	BuyingPrice decimal.Decimal
	CGST        decimal.Decimal
	SGST        decimal.Decimal
	IGST        decimal.Decimal
	NetAmount   decimal.Decimal
	ITC         decimal.Decimal
	AmountPaid  decimal.Decimal
}

// TaxSplit holds one value per GST component.
type TaxSplit struct {
	IGST decimal.Decimal
	CGST decimal.Decimal
	SGST decimal.Decimal
}

// Total is the sum of the three components.
func (t TaxSplit) Total() decimal.Decimal {
	return t.IGST.Add(t.CGST).Add(t.SGST)
}

func (t TaxSplit) add(igst, cgst, sgst Amount) TaxSplit {
	return TaxSplit{
		IGST: t.IGST.Add(igst.Decimal()),
		CGST: t.CGST.Add(cgst.Decimal()),
		SGST: t.SGST.Add(sgst.Decimal()),
	}
}

func (t TaxSplit) sub(o TaxSplit) TaxSplit {
	return TaxSplit{
		IGST: t.IGST.Sub(o.IGST),
		CGST: t.CGST.Sub(o.CGST),
		SGST: t.SGST.Sub(o.SGST),
	}
}

// LedgerTotals splits ledger activity by transaction type.
type LedgerTotals struct {
	Entries int
	Credits int
	Debits  int
	Credit  TaxSplit
	Debit   TaxSplit
	Net     TaxSplit
}

// ProductTotals is the footer row of a product sub-table.
type ProductTotals struct {
	Quantity           int
	PriceAfterDiscount decimal.Decimal
	CGST               decimal.Decimal
	SGST               decimal.Decimal
	IGST               decimal.Decimal
}

// SumInvoices reduces invoices to their column sums. The result does not
// depend on the order of the input, and every field is zero for an empty slice.
func SumInvoices(invoices []Invoice) InvoiceTotals {
	t := InvoiceTotals{Count: len(invoices)}
	for _, inv := range invoices {
		t.Amount = t.Amount.Add(inv.Amount.Decimal())
		t.BuyingPrice = t.BuyingPrice.Add(inv.BuyingPrice.Decimal())
		t.CGST = t.CGST.Add(inv.CGST.Decimal())
		t.SGST = t.SGST.Add(inv.SGST.Decimal())
		t.IGST = t.IGST.Add(inv.IGST.Decimal())
		t.NetAmount = t.NetAmount.Add(inv.NetAmount.Decimal())
		t.ITC = t.ITC.Add(inv.ITC.Decimal())
		t.AmountPaid = t.AmountPaid.Add(inv.AmountPaid.Decimal())
	}
	return t
}

// SumLedger totals credits and debits per tax component. Entries with any
// other transaction type are counted but contribute to neither side.
func SumLedger(entries []LedgerEntry) LedgerTotals {
	t := LedgerTotals{Entries: len(entries)}
	for _, e := range entries {
		switch {
		case e.IsCredit():
			t.Credits++
			t.Credit = t.Credit.add(e.IGST, e.CGST, e.SGST)
		case e.IsDebit():
			t.Debits++
			t.Debit = t.Debit.add(e.IGST, e.CGST, e.SGST)
		}
	}
	t.Net = t.Credit.sub(t.Debit)
	return t
}

func SumProducts(products []Product) ProductTotals {
	var t ProductTotals
	for _, p := range products {
		t.Quantity += p.Quantity
		t.PriceAfterDiscount = t.PriceAfterDiscount.Add(p.PriceAfterDiscount.Decimal())
		t.CGST = t.CGST.Add(p.CGST.Decimal())
		t.SGST = t.SGST.Add(p.SGST.Decimal())
		t.IGST = t.IGST.Add(p.IGST.Decimal())
	}
	return t
}

// Total sums the per-component balances.
func (b Balance) Total() decimal.Decimal {
	return b.IGSTBalance.Decimal().Add(b.CGSTBalance.Decimal()).Add(b.SGSTBalance.Decimal())
}
