package execute

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NewLines returns the lines of next that are not matched to a line of
// prev by the longest-common-subsequence alignment.
func NewLines(prev, next []string) []string {
	m := difflib.NewMatcherWithJunk(prev, next, false, nil)

	var out []string
	for _, op := range m.GetOpCodes() {
		if op.Tag == 'r' || op.Tag == 'i' {
			out = append(out, next[op.J1:op.J2]...)
		}
	}
	return out
}

// Diff returns the text added between two outputs, trimmed.
func Diff(prev, next string) string {
	return strings.TrimSpace(strings.Join(NewLines(splitLines(prev), splitLines(next)), "\n"))
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
