// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every piece of view state (page, filter, sort, tab, expansion) travels
// in the query string, so parsing is lenient: bad values fall back to
// defaults instead of failing the request.

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gstdash/internal/log"
	"gstdash/internal/services"
	"gstdash/internal/session"
	"gstdash/internal/table"
)

const maxFilterLen = 100

// ParsePage reads the 1-based page number, defaulting to 1.
func ParsePage(query url.Values) int {
	v := strings.TrimSpace(query.Get(services.ParamPage))
	if v == "" {
		return 1
	}
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// ParseFilter reads the free-text filter, sanitized and capped in length.
func ParseFilter(query url.Values) string {
	f := sanitizeInput(query.Get(services.ParamFilter))
	if r := []rune(f); len(r) > maxFilterLen {
		f = string(r[:maxFilterLen])
	}
	return f
}

// sortParser is the part of table.Table the parser needs.
type sortParser interface {
	Parse(raw string) (table.State, error)
}

// ParseSort decodes the sort state for one table. An unknown column or
// malformed value leaves the table unsorted.
func ParseSort(r *http.Request, param string, t sortParser) table.State {
	raw := r.URL.Query().Get(param)
	s, err := t.Parse(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, table.ErrUnknownColumn) {
			reason = "unknown column"
		}
		log.FromContext(r.Context()).DebugContext(r.Context(), "Ignoring sort parameter",
			log.FieldOperation, log.OpParse, "param", param, "value", raw, "reason", reason, log.FieldError, err)
		return table.State{}
	}
	return s
}

// scopedParser is the part of table.Table that reads per-instance sorts.
type scopedParser interface {
	ParseScoped(raws []string) (table.Scoped, error)
}

// ParseScopedSort decodes the repeated per-instance sort values behind
// param. Bad values are dropped; the valid ones still apply.
func ParseScopedSort(r *http.Request, param string, t scopedParser) table.Scoped {
	raws := r.URL.Query()[param]
	s, err := t.ParseScoped(raws)
	if err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Ignoring scoped sort values",
			log.FieldOperation, log.OpParse, "param", param, log.FieldError, err)
	}
	return s
}

func parseFilingsRequest(r *http.Request, gstin string) services.FilingsRequest {
	return services.FilingsRequest{
		GSTIN:        gstin,
		Sort:         ParseSort(r, services.ParamSort, table.Filings),
		InvoiceSorts: ParseScopedSort(r, services.ParamInvoiceSort, table.Invoices),
		Expansion:    table.ParseExpansion(r.URL.Query()),
	}
}

func parseDetailsRequest(r *http.Request, gstin string) services.DetailsRequest {
	return services.DetailsRequest{
		GSTIN:      gstin,
		Tab:        services.NormalizeTab(r.URL.Query().Get(services.ParamTab)),
		LedgerSort: ParseSort(r, services.ParamLedgerSort, table.Ledger),
		CreditSort: ParseSort(r, services.ParamCreditSort, table.CreditNotes),
	}
}

// parseLoginForm reads the login form. Only the username is sanitized;
// the password is compared as typed.
func parseLoginForm(r *http.Request) session.LoginForm {
	return session.LoginForm{
		Username: sanitizeInput(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
		Next:     strings.TrimSpace(r.PostForm.Get("next")),
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").
		Header("Allow", strings.Join(methods, ", "))
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
