// Package dateutil resolves the date shown on built pages from the
// output.date setting and the page's front matter.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid output.date value.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits the length of a date format.
const MaxDateFormatLength = 50

// DefaultDateFormat is used by "auto" and for front matter dates when the
// setting names no format.
const DefaultDateFormat = "YYYY-MM-DD"

const autoKeyword = "auto"

// dateTokens maps format tokens to Go layout elements, longest first.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets names formats usable as "auto:<preset>".
var DatePresets = map[string]string{
	"iso":   "YYYY-MM-DD",
	"long":  "MMMM D, YYYY",
	"short": "MMM D, YYYY",
	"month": "MMMM YYYY",
}

// frontMatterLayouts are the date strings recognized in front matter.
var frontMatterLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
}

// Layout is a parsed date format.
type Layout struct {
	parts []layoutPart
}

// layoutPart is literal text, or a Go layout element when element is set.
type layoutPart struct {
	text    string
	element bool
}

// ParseLayout parses a format built from the tokens YYYY, YY, MMMM, MMM,
// MM, M, DD, D, dddd and ddd. Bracketed text and any other character are
// kept literally: "[Updated] D MMMM" gives "Updated 4 March".
func ParseLayout(format string) (Layout, error) {
	if format == "" {
		return Layout{}, fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return Layout{}, fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var (
		l   Layout
		lit strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			l.parts = append(l.parts, layoutPart{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end < 0 {
				return Layout{}, fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			lit.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		if token, goFmt, ok := matchToken(format[i:]); ok {
			flush()
			l.parts = append(l.parts, layoutPart{text: goFmt, element: true})
			i += len(token)
			continue
		}
		lit.WriteByte(format[i])
		i++
	}
	flush()

	return l, nil
}

func matchToken(s string) (string, string, bool) {
	for _, t := range dateTokens {
		if strings.HasPrefix(s, t.token) {
			return t.token, t.goFmt, true
		}
	}
	return "", "", false
}

// Format returns t in layout l. Literal text is copied as is, even where
// it looks like a Go layout element. The zero Layout formats YYYY-MM-DD.
func (l Layout) Format(t time.Time) string {
	if len(l.parts) == 0 {
		return t.Format(time.DateOnly)
	}
	var b strings.Builder
	for _, p := range l.parts {
		if p.element {
			b.WriteString(t.Format(p.text))
			continue
		}
		b.WriteString(p.text)
	}
	return b.String()
}

// Setting is a parsed output.date value.
type Setting struct {
	auto    bool
	literal string
	layout  Layout
}

// ParseSetting parses an output.date value:
//   - "" shows no date unless the front matter sets one
//   - "auto" shows the build date as YYYY-MM-DD
//   - "auto:FORMAT" or "auto:PRESET" shows the build date in that format
//   - anything else is shown as written
//
// Front matter dates are shown in the setting's format, YYYY-MM-DD when
// it names none.
func ParseSetting(value string) (Setting, error) {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, autoKeyword) {
		return Setting{literal: value}, nil
	}
	if lower == autoKeyword {
		return Setting{auto: true}, nil
	}
	if !strings.HasPrefix(lower, autoKeyword+":") {
		return Setting{}, fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	}

	// Tokens are case-sensitive; only the preset lookup ignores case.
	format := value[len(autoKeyword)+1:]
	if format == "" {
		return Setting{}, fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}
	if preset, ok := DatePresets[strings.ToLower(format)]; ok {
		format = preset
	}

	layout, err := ParseLayout(format)
	if err != nil {
		return Setting{}, err
	}
	return Setting{auto: true, layout: layout}, nil
}

// Page is the date of one page.
type Page struct {
	// Text is shown to readers.
	Text string
	// ISO is the YYYY-MM-DD form, empty when the date is free text.
	ISO string
}

// Default returns the date of pages whose front matter sets none. now is
// the build time.
func (s Setting) Default(now time.Time) Page {
	if s.auto {
		return Page{Text: s.layout.Format(now), ISO: now.Format(time.DateOnly)}
	}
	text := strings.TrimSpace(s.literal)
	if t, ok := parseDate(text); ok {
		return Page{Text: text, ISO: t.Format(time.DateOnly)}
	}
	return Page{Text: text}
}

// FrontMatter returns the date for a front matter "date" value. Decoded
// timestamps and date strings are shown in the setting's format; other text
// is shown as written. It reports false when v holds no date.
func (s Setting) FrontMatter(v any) (Page, bool) {
	switch d := v.(type) {
	case time.Time:
		return s.page(d), true
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return Page{}, false
		}
		if t, ok := parseDate(d); ok {
			return s.page(t), true
		}
		return Page{Text: d}, true
	case int, int64, uint64:
		// "date: 2024" decodes as a number.
		return Page{Text: fmt.Sprint(d)}, true
	}
	return Page{}, false
}

func (s Setting) page(t time.Time) Page {
	return Page{Text: s.layout.Format(t), ISO: t.Format(time.DateOnly)}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range frontMatterLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
