package table

import "gstdash/internal/core"

// Column names used in sort query parameters.
const (
	ColDueDate      Column = "due_date"
	ColTotalAmount  Column = "total_amount"
	ColTotalPayable Column = "total_payable"
	ColPenalty      Column = "penalty"
	ColStatus       Column = "status"

	ColDate       Column = "date"
	ColAmount     Column = "amount"
	ColNetAmount  Column = "net_amount"
	ColCGST       Column = "cgst"
	ColSGST       Column = "sgst"
	ColIGST       Column = "igst"
	ColITC        Column = "itc"
	ColAmountPaid Column = "amount_paid"
	ColInvoiceID  Column = "invoice_id"

	ColType Column = "type"
)

var Filings = New(map[Column]Comparator[core.Filing]{
	ColDueDate:      Date(func(f core.Filing) string { return f.DueDate }),
	ColTotalAmount:  Number(func(f core.Filing) core.Amount { return f.TotalAmount }),
	ColTotalPayable: Number(func(f core.Filing) core.Amount { return f.TotalPayableAmount }),
	ColPenalty:      Number(func(f core.Filing) core.Amount { return f.Penalty }),
	ColStatus:       Text(func(f core.Filing) string { return f.Status }),
})

var Invoices = New(map[Column]Comparator[core.Invoice]{
	ColDate:       Date(func(i core.Invoice) string { return i.Date }),
	ColAmount:     Number(func(i core.Invoice) core.Amount { return i.Amount }),
	ColNetAmount:  Number(func(i core.Invoice) core.Amount { return i.NetAmount }),
	ColCGST:       Number(func(i core.Invoice) core.Amount { return i.CGST }),
	ColSGST:       Number(func(i core.Invoice) core.Amount { return i.SGST }),
	ColIGST:       Number(func(i core.Invoice) core.Amount { return i.IGST }),
	ColITC:        Number(func(i core.Invoice) core.Amount { return i.ITC }),
	ColAmountPaid: Number(func(i core.Invoice) core.Amount { return i.AmountPaid }),
	ColInvoiceID:  Text(func(i core.Invoice) string { return i.InvoiceID }),
})

var Ledger = New(map[Column]Comparator[core.LedgerEntry]{
	ColDate: Date(func(e core.LedgerEntry) string { return e.TxnDate }),
	ColIGST: Number(func(e core.LedgerEntry) core.Amount { return e.IGST }),
	ColCGST: Number(func(e core.LedgerEntry) core.Amount { return e.CGST }),
	ColSGST: Number(func(e core.LedgerEntry) core.Amount { return e.SGST }),
	ColType: Text(func(e core.LedgerEntry) string { return e.TxnType }),
})

var CreditNotes = New(map[Column]Comparator[core.CreditNote]{
	ColDate:      Date(func(c core.CreditNote) string { return c.CreditNoteDate }),
	ColAmount:    Number(func(c core.CreditNote) core.Amount { return c.Amount }),
	ColNetAmount: Number(func(c core.CreditNote) core.Amount { return c.NetAmount }),
})
