package mdast

import "strings"

var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"{", "&#123;",
		"}", "&#125;",
		`"`, "&quot;",
		"_", "&#95;",
	)

	unescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&#123;", "{",
		"&#125;", "}",
		"&quot;", `"`,
		"&#95;", "_",
	)

	quotes = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// Escape encodes math content for safe embedding in the document tree.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// StraightenQuotes converts typographic quotes to their ASCII form.
// Typst string literals only accept straight quotes.
func StraightenQuotes(s string) string {
	return quotes.Replace(s)
}
