// Package core provides the GST domain model and the pure helpers that
// shape it for display.
//
// This file contains tolerant parsing of monetary text and the Indian
// rupee currency formatter.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "₹"

// ZeroCurrency is the canonical rendering of an absent or invalid amount.
const ZeroCurrency = CurrencySymbol + "0.00"

var nullLike = map[string]struct{}{
	"null":      {},
	"undefined": {},
	"nan":       {},
	"none":      {},
}

// ParseAmount converts decimal text into a decimal value.
//
// Parsing never fails: empty text, null-like sentinels and anything that is
// not a number all yield zero. A leading rupee sign, thousands separators
// and surrounding spaces are ignored.
//
// Examples:
//
//	ParseAmount("1,23,456.78") -> 123456.78
//	ParseAmount("₹ 12.5")     -> 12.5
//	ParseAmount("null")       -> 0
//	ParseAmount("abc")        -> 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if _, ok := nullLike[strings.ToLower(s)]; ok {
		return decimal.Zero
	}
	s = strings.TrimPrefix(s, CurrencySymbol)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Decimal returns the parsed value of the amount.
func (a Amount) Decimal() decimal.Decimal {
	return ParseAmount(string(a))
}

// IsPositive reports whether the amount parses to a value above zero.
func (a Amount) IsPositive() bool {
	return a.Decimal().IsPositive()
}

// FormatCurrency renders decimal text as rupees with Indian digit grouping
// and exactly two fraction digits.
func FormatCurrency(s string) string {
	return FormatDecimal(ParseAmount(s))
}

// FormatDecimal renders d as rupees, e.g. ₹12,34,567.80.
func FormatDecimal(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsZero() {
		return ZeroCurrency
	}
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	out := CurrencySymbol + groupIndian(intPart) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// groupIndian inserts separators after the last three digits and then
// every two digits: 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
