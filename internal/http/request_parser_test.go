package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gstdash/internal/services"
	"gstdash/internal/table"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  int
	}{
		{"missing", url.Values{}, 1},
		{"valid", url.Values{"page": {"3"}}, 3},
		{"zero clamps", url.Values{"page": {"0"}}, 1},
		{"negative clamps", url.Values{"page": {"-2"}}, 1},
		{"garbage", url.Values{"page": {"abc"}}, 1},
		{"padded", url.Values{"page": {" 4 "}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePage(tt.query); got != tt.want {
				t.Errorf("ParsePage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trimmed", "  acme  ", "acme"},
		{"control chars removed", "ac\x00me\x07", "acme"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilter(url.Values{"q": {tt.input}})
			if got != tt.want {
				t.Errorf("ParseFilter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	long := strings.Repeat("é", maxFilterLen+20)
	if got := ParseFilter(url.Values{"q": {long}}); len([]rune(got)) != maxFilterLen {
		t.Errorf("long filter kept %d runes, want %d", len([]rune(got)), maxFilterLen)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantActive table.Column
		wantDir    table.Direction
	}{
		{"empty", "", "", table.Unset},
		{"valid", "penalty.desc", table.ColPenalty, table.Desc},
		{"unknown column", "nope.asc", "", table.Unset},
		{"malformed", "penalty", "", table.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/all-filings?sort="+url.QueryEscape(tt.raw), nil)
			s := ParseSort(r, services.ParamSort, table.Filings)
			if s.Active() != tt.wantActive {
				t.Errorf("Active() = %q, want %q", s.Active(), tt.wantActive)
			}
			if s.ActiveDirection() != tt.wantDir {
				t.Errorf("ActiveDirection() = %v, want %v", s.ActiveDirection(), tt.wantDir)
			}
		})
	}
}

func TestParseFilingsRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/gst-filings/X?sort=due_date.asc&isort=a::amount.desc&isort=b::bogus.asc&isort=amount.asc&open=a&item=a::0-inv-1&item=b::1-inv-2", nil)
	req := parseFilingsRequest(r, "X")

	if req.GSTIN != "X" {
		t.Errorf("GSTIN = %q", req.GSTIN)
	}
	if req.Sort.Active() != table.ColDueDate {
		t.Errorf("Sort active = %q", req.Sort.Active())
	}
	if got := req.InvoiceSorts.Get("a"); got.Active() != table.ColAmount || got.ActiveDirection() != table.Desc {
		t.Errorf("invoice sort of a = %q", got.Encode())
	}
	if got := req.InvoiceSorts.Encode(); len(got) != 1 {
		t.Errorf("invalid scoped sorts kept: %v", got)
	}
	if !req.Expansion.IsOpen("a") || !req.Expansion.IsChildOpen("a", "0-inv-1") {
		t.Error("expansion of a lost")
	}
	if req.Expansion.IsChildOpen("b", "1-inv-2") {
		t.Error("child of a collapsed parent should be dropped")
	}
}

func TestParseDetailsRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/vendor-details/X?tab=weird&lsort=type.asc&csort=bogus.asc", nil)
	req := parseDetailsRequest(r, "X")
	if req.Tab != services.TabBalance {
		t.Errorf("Tab = %q, want %q", req.Tab, services.TabBalance)
	}
	if req.LedgerSort.Active() != table.ColType {
		t.Errorf("LedgerSort = %q", req.LedgerSort.Encode())
	}
	if req.CreditSort.Active() != "" {
		t.Errorf("CreditSort should be unsorted, got %q", req.CreditSort.Encode())
	}
}

func TestRequireMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/logout", nil)
	b := RequireMethod(r, http.MethodPost)
	if b == nil {
		t.Fatal("GET accepted on POST-only route")
	}
	w := httptest.NewRecorder()
	b.Write(w)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if w.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Allow = %q", w.Header().Get("Allow"))
	}

	r = httptest.NewRequest(http.MethodPost, "/logout", nil)
	if RequireMethod(r, http.MethodPost) != nil {
		t.Error("POST rejected")
	}
}

func TestParseLoginForm(t *testing.T) {
	body := url.Values{"username": {"  admin\x00 "}, "password": {" 12345 "}, "next": {" /vendors "}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if b := ParseFormOrFail(r); b != nil {
		t.Fatal("form did not parse")
	}
	f := parseLoginForm(r)
	if f.Username != "admin" {
		t.Errorf("Username = %q", f.Username)
	}
	if f.Password != " 12345 " {
		t.Errorf("Password was altered: %q", f.Password)
	}
	if f.Next != "/vendors" {
		t.Errorf("Next = %q", f.Next)
	}
}
