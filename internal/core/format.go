package core

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder is rendered for missing or unparsable values.
const Placeholder = "-"

const (
	dateLayout     = "2 Jan 2006"
	dateTimeLayout = "2 Jan 2006, 03:04 pm"
)

// DefaultLocation is the zone timestamps are displayed in when none is configured.
var DefaultLocation = mustLoad("Asia/Kolkata")

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

const dateOnlyLayout = "2006-01-02"

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateFormatter renders upstream date and timestamp text in a fixed location.
type DateFormatter struct {
	Loc *time.Location
}

// NewDateFormatter returns a formatter for loc, falling back to DefaultLocation.
func NewDateFormatter(loc *time.Location) DateFormatter {
	if loc == nil {
		loc = DefaultLocation
	}
	return DateFormatter{Loc: loc}
}

// ParseTime parses ISO-ish date or timestamp text. The second result
// reports whether the value carried a time of day.
func (f DateFormatter) ParseTime(s string) (t time.Time, hasClock bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(f.location()), true, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, f.location()); err == nil {
			return t, true, true
		}
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

// Date renders s as a short date, e.g. 15 Oct 2025.
func (f DateFormatter) Date(s string) string {
	t, _, ok := f.ParseTime(s)
	if !ok {
		return Placeholder
	}
	return t.Format(dateLayout)
}

// DateTime renders s as a short date with hour and minute.
func (f DateFormatter) DateTime(s string) string {
	t, _, ok := f.ParseTime(s)
	if !ok {
		return Placeholder
	}
	return t.Format(dateTimeLayout)
}

// Ago renders s relative to now, e.g. "3 hours ago".
func (f DateFormatter) Ago(s string, now time.Time) string {
	t, _, ok := f.ParseTime(s)
	if !ok {
		return Placeholder
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func (f DateFormatter) location() *time.Location {
	if f.Loc == nil {
		return DefaultLocation
	}
	return f.Loc
}

// ParseTime parses s in DefaultLocation.
func ParseTime(s string) (time.Time, bool) {
	t, _, ok := NewDateFormatter(nil).ParseTime(s)
	return t, ok
}

func FormatDate(s string) string {
	return NewDateFormatter(nil).Date(s)
}

func FormatDateTime(s string) string {
	return NewDateFormatter(nil).DateTime(s)
}

// Title capitalizes labels such as merchant types and timeframes.
func Title(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return Placeholder
	}
	return cases.Title(language.English).String(s)
}
