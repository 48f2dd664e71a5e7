package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const (
	TxnCredit = "credit"
	TxnDebit  = "debit"
)

type (
	// Amount is a monetary value as transmitted by the upstream API:
	// decimal text, possibly empty or a null-like sentinel.
	Amount string

	Vendor struct {
		GSTIN        string `json:"gstin"`
		Name         string `json:"name"`
		MerchantType string `json:"merchant_type"`
		State        string `json:"state"`
		CreatedAt    string `json:"created_at"`
		ITCOptedIn   bool   `json:"is_itc_optedin"`
		Turnover     Amount `json:"turnover"`
		APIKey       string `json:"api_key,omitempty"`
	}

	Product struct {
		SKU                string `json:"sku"`
		Name               string `json:"product_name"`
		Category           string `json:"category"`
		UnitPrice          Amount `json:"unit_price"`
		Quantity           int    `json:"quantity"`
		DiscountPercent    Amount `json:"discount_percent"`
		PriceAfterDiscount Amount `json:"price_after_discount"`
		CGST               Amount `json:"cgst"`
		SGST               Amount `json:"sgst"`
		IGST               Amount `json:"igst"`
		BuyingPrice        Amount `json:"buying_price"`
	}

	Invoice struct {
		InvoiceID     string    `json:"invoice_id"`
		Date          string    `json:"date"`
		Amount        Amount    `json:"amount"`
		BuyingPrice   Amount    `json:"buying_price"`
		CGST          Amount    `json:"cgst"`
		SGST          Amount    `json:"sgst"`
		IGST          Amount    `json:"igst"`
		State         string    `json:"state"`
		NetAmount     Amount    `json:"net_amount"`
		ITC           Amount    `json:"itc"`
		Status        string    `json:"status"`
		PaymentStatus string    `json:"payment_status"`
		AmountPaid    Amount    `json:"amount_paid"`
		Products      []Product `json:"products"`
	}

	Filing struct {
		GSTIN              string    `json:"gstin"`
		VendorName         string    `json:"vendor_name"`
		Timeframe          string    `json:"timeframe"`
		FilingStartDate    string    `json:"filing_start_date"`
		FilingEndDate      string    `json:"filing_end_date"`
		DueDate            string    `json:"due_date"`
		FiledAt            *string   `json:"filed_at"`
		IsLate             bool      `json:"is_late"`
		Status             string    `json:"status"`
		TotalAmount        Amount    `json:"total_amount"`
		TotalTax           Amount    `json:"total_tax"`
		InvoiceCount       int       `json:"invoice_count"`
		InputTaxCredit     Amount    `json:"input_tax_credit"`
		TaxPayable         Amount    `json:"tax_payable"`
		Penalty            Amount    `json:"penalty"`
		TotalPayableAmount Amount    `json:"total_payable_amount"`
		Invoices           []Invoice `json:"invoices"`
	}

	LedgerEntry struct {
		ID            int64  `json:"id"`
		GSTIN         string `json:"gstin"`
		TxnType       string `json:"txn_type"`
		IGST          Amount `json:"igst"`
		CGST          Amount `json:"cgst"`
		SGST          Amount `json:"sgst"`
		TxnDate       string `json:"txn_date"`
		TxnReason     string `json:"txn_reason"`
		EffectiveFrom string `json:"effective_from"`
		ReferenceID   string `json:"reference_id,omitempty"`
	}

	Balance struct {
		GSTIN       string `json:"gstin"`
		IGSTBalance Amount `json:"igst_balance"`
		CGSTBalance Amount `json:"cgst_balance"`
		SGSTBalance Amount `json:"sgst_balance"`
		UpdatedAt   string `json:"updated_at"`
	}

	CreditNote struct {
		ID             int64  `json:"id"`
		GSTIN          string `json:"gstin"`
		InvoiceRefID   int64  `json:"invoice_ref_id"`
		InvoiceID      string `json:"invoice_id"`
		InvoiceDate    string `json:"invoice_date"`
		CreditNoteDate string `json:"credit_note_date"`
		Reason         string `json:"reason"`
		Status         string `json:"status,omitempty"`
		Amount         Amount `json:"amount"`
		CGST           Amount `json:"cgst"`
		SGST           Amount `json:"sgst"`
		IGST           Amount `json:"igst"`
		NetAmount      Amount `json:"net_amount"`
	}
)

var ErrEmptyGSTIN = errors.New("empty gstin")

// UnmarshalJSON accepts decimal text, bare JSON numbers and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(b)
	return nil
}

// Key identifies a filing independently of its position in a listing.
func (f Filing) Key() string {
	return f.GSTIN + "|" + f.FilingStartDate + "|" + f.Timeframe
}

// InvoiceKey identifies the i-th embedded invoice within the filing.
// Invoice ids are not guaranteed unique, so the upstream position is part
// of the key.
func (f Filing) InvoiceKey(i int) string {
	return strconv.Itoa(i) + "-" + f.Invoices[i].InvoiceID
}

// InvoicesShown is the number of invoices actually embedded, which may
// disagree with the reported InvoiceCount.
func (f Filing) InvoicesShown() int {
	return len(f.Invoices)
}

// CountMismatch reports whether the embedded invoices disagree with the
// reported count.
func (f Filing) CountMismatch() bool {
	return f.InvoiceCount != len(f.Invoices)
}

func (f Filing) Filed() bool {
	return f.FiledAt != nil && strings.TrimSpace(*f.FiledAt) != ""
}

// Matches reports whether q is a case-insensitive substring of the vendor's
// name or GSTIN. An empty query matches everything.
func (v Vendor) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Name), q) ||
		strings.Contains(strings.ToLower(v.GSTIN), q)
}

// Initial returns the first letter of the vendor name for avatar badges.
func (v Vendor) Initial() string {
	for _, r := range strings.TrimSpace(v.Name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func (e LedgerEntry) IsCredit() bool {
	return strings.EqualFold(strings.TrimSpace(e.TxnType), TxnCredit)
}

func (e LedgerEntry) IsDebit() bool {
	return strings.EqualFold(strings.TrimSpace(e.TxnType), TxnDebit)
}

// Total is the sum of the three tax components of the entry.
func (e LedgerEntry) Total() Amount {
	return Amount(ParseAmount(string(e.IGST)).
		Add(ParseAmount(string(e.CGST))).
		Add(ParseAmount(string(e.SGST))).String())
}

// ValidateGSTIN rejects blank path parameters. Any other value is passed
// upstream unchanged; an unknown GSTIN surfaces as the upstream's error.
func ValidateGSTIN(gstin string) error {
	if strings.TrimSpace(gstin) == "" {
		return ErrEmptyGSTIN
	}
	return nil
}
