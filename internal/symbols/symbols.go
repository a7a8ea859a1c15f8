// Package symbols translates symbol names (LaTeX commands, Typst math names)
// into single Unicode characters.
//
// Translation is a single left-to-right scan. At each position the candidate
// names are tried longest first, so the result never depends on map
// iteration order: "arrow.l.r" wins over "arrow.l" and "arrow".
package symbols

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Translator replaces known symbol names in text with their Unicode form.
// A Translator is immutable and safe for concurrent use.
type Translator struct {
	byFirst   map[byte][]entry
	wordStart bool
}

type entry struct {
	name  string
	value string
}

// Option configures a Translator.
type Option func(*Translator)

// WithWordStart requires a match to begin at a word start: the preceding
// rune must not be a letter or a dot. Needed for tables whose names are
// bare words ("in", "pi") rather than backslash commands.
func WithWordStart() Option {
	return func(t *Translator) {
		t.wordStart = true
	}
}

// New builds a Translator from a name to replacement table.
// Empty names are ignored.
func New(table map[string]string, opts ...Option) *Translator {
	t := &Translator{byFirst: make(map[byte][]entry)}
	for _, opt := range opts {
		opt(t)
	}

	for name, value := range table {
		if name == "" {
			continue
		}
		t.byFirst[name[0]] = append(t.byFirst[name[0]], entry{name: name, value: value})
	}

	for k := range t.byFirst {
		candidates := t.byFirst[k]
		sort.Slice(candidates, func(i, j int) bool {
			if len(candidates[i].name) != len(candidates[j].name) {
				return len(candidates[i].name) > len(candidates[j].name)
			}
			return candidates[i].name < candidates[j].name
		})
	}

	return t
}

// LaTeX returns a Translator for backslash commands such as \alpha and \to.
func LaTeX() *Translator {
	return latex
}

// Typst returns a Translator for Typst math names such as alpha, NN and arrow.r.
func Typst() *Translator {
	return typst
}

var (
	latex = New(latexTable)
	typst = New(typstTable, WithWordStart())
)

// Translate returns s with every recognized symbol name replaced.
// A name matches only when the rune after it is not a letter.
func (t *Translator) Translate(s string) string {
	var b strings.Builder
	changed := false

	for i := 0; i < len(s); {
		if e, ok := t.match(s, i); ok {
			if !changed {
				b.Grow(len(s))
				b.WriteString(s[:i])
				changed = true
			}
			b.WriteString(e.value)
			i += len(e.name)
			continue
		}

		_, size := utf8.DecodeRuneInString(s[i:])
		if changed {
			b.WriteString(s[i : i+size])
		}
		i += size
	}

	if !changed {
		return s
	}
	return b.String()
}

// Contains reports whether s holds at least one translatable name.
func (t *Translator) Contains(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, ok := t.match(s, i); ok {
			return true
		}
	}
	return false
}

func (t *Translator) match(s string, i int) (entry, bool) {
	candidates, ok := t.byFirst[s[i]]
	if !ok {
		return entry{}, false
	}

	if t.wordStart && i > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if unicode.IsLetter(prev) || prev == '.' {
			return entry{}, false
		}
	}

	for _, e := range candidates {
		if !strings.HasPrefix(s[i:], e.name) {
			continue
		}
		end := i + len(e.name)
		if end < len(s) {
			next, _ := utf8.DecodeRuneInString(s[end:])
			if unicode.IsLetter(next) {
				continue
			}
		}
		return e, true
	}
	return entry{}, false
}
