package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAmountUnmarshalAcceptsTextNumbersAndNull(t *testing.T) {
	var inv Invoice
	body := `{"invoice_id":"INV-1","amount":"1200.50","cgst":54,"sgst":null,"igst":"undefined"}`
	if err := json.Unmarshal([]byte(body), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inv.Amount != "1200.50" {
		t.Fatalf("amount = %q", inv.Amount)
	}
	if inv.CGST != "54" {
		t.Fatalf("cgst = %q", inv.CGST)
	}
	if inv.SGST != "" {
		t.Fatalf("sgst = %q, want empty", inv.SGST)
	}
	if !inv.IGST.Decimal().IsZero() {
		t.Fatalf("igst should parse to zero, got %s", inv.IGST.Decimal())
	}
}

func TestFilingInvoiceCountMismatch(t *testing.T) {
	f := Filing{GSTIN: "27AAPFU0939F1ZV", InvoiceCount: 5}
	if f.InvoicesShown() != 0 {
		t.Fatalf("expected 0 invoices shown, got %d", f.InvoicesShown())
	}
	if !f.CountMismatch() {
		t.Fatalf("expected mismatch between reported count and embedded invoices")
	}
	f.Invoices = make([]Invoice, 5)
	if f.CountMismatch() {
		t.Fatalf("expected no mismatch")
	}
}

func TestFilingKeyAndFiled(t *testing.T) {
	filed := "2025-04-18T10:00:00Z"
	f := Filing{GSTIN: "G1", FilingStartDate: "2025-03-01", Timeframe: "monthly", FiledAt: &filed}
	if f.Key() != "G1|2025-03-01|monthly" {
		t.Fatalf("key = %q", f.Key())
	}
	if !f.Filed() {
		t.Fatalf("expected filed")
	}
	empty := ""
	f.FiledAt = &empty
	if f.Filed() {
		t.Fatalf("blank filed_at should not count as filed")
	}
}

func TestValidateGSTIN(t *testing.T) {
	for _, in := range []string{"", "   ", "\t"} {
		if err := ValidateGSTIN(in); !errors.Is(err, ErrEmptyGSTIN) {
			t.Errorf("ValidateGSTIN(%q) = %v, want ErrEmptyGSTIN", in, err)
		}
	}
	for _, in := range []string{"29ABCDE1234F1Z5", "29aaaa0002", "G1"} {
		if err := ValidateGSTIN(in); err != nil {
			t.Errorf("ValidateGSTIN(%q) = %v, want nil", in, err)
		}
	}
}

func TestVendorMatches(t *testing.T) {
	v := Vendor{GSTIN: "27AAPFU0939F1ZV", Name: "Acme Traders"}
	cases := map[string]bool{
		"":          true,
		"acme":      true,
		"TRADERS":   true,
		"aapfu":     true,
		"  27aa  ":  true,
		"globex":    false,
		"acme inc.": false,
	}
	for q, want := range cases {
		if got := v.Matches(q); got != want {
			t.Fatalf("Matches(%q) = %v, want %v", q, got, want)
		}
	}
	if v.Initial() != "A" {
		t.Fatalf("initial = %q", v.Initial())
	}
	if (Vendor{}).Initial() != "?" {
		t.Fatalf("empty vendor initial should be ?")
	}
}

func TestLedgerEntryType(t *testing.T) {
	e := LedgerEntry{TxnType: " Credit ", IGST: "10", CGST: "2.5", SGST: "2.5"}
	if !e.IsCredit() || e.IsDebit() {
		t.Fatalf("expected credit")
	}
	if got := e.Total().Decimal().String(); got != "15" {
		t.Fatalf("total = %s", got)
	}
}
