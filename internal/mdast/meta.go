package mdast

import (
	"strconv"
	"strings"
	"unicode"
)

// Attribute is one ":key value" pair from a fenced block info string.
type Attribute struct {
	Key   string
	Value string
	start int
	end   int
}

// Attributes is the ordered attribute set parsed from a meta string.
// Keys are case-sensitive; a later duplicate overrides an earlier one on
// lookup but both are kept in order.
type Attributes struct {
	raw   string
	items []Attribute
}

// ParseMeta parses ":key value" and ":key "quoted value"" tokens.
// A key with no value (":exec" at the end, or followed by another key)
// is recorded with the value "true". Text outside attribute tokens is
// ignored but preserved by Without.
func ParseMeta(meta string) Attributes {
	attrs := Attributes{raw: meta}

	i := 0
	for i < len(meta) {
		if meta[i] != ':' || (i > 0 && !isSpace(meta[i-1])) {
			i++
			continue
		}

		start := i
		j := i + 1
		for j < len(meta) && isKeyByte(meta[j]) {
			j++
		}
		if j == i+1 {
			i++
			continue
		}
		key := meta[i+1 : j]

		// Skip whitespace to the value, if any.
		k := j
		for k < len(meta) && isSpace(meta[k]) {
			k++
		}

		switch {
		case k >= len(meta) || k == j || meta[k] == ':':
			attrs.items = append(attrs.items, Attribute{Key: key, Value: "true", start: start, end: j})
			i = j
		case meta[k] == '"':
			end := strings.IndexByte(meta[k+1:], '"')
			if end < 0 {
				// Unterminated quote: take the rest of the string.
				attrs.items = append(attrs.items, Attribute{Key: key, Value: meta[k+1:], start: start, end: len(meta)})
				i = len(meta)
				continue
			}
			attrs.items = append(attrs.items, Attribute{Key: key, Value: meta[k+1 : k+1+end], start: start, end: k + 2 + end})
			i = k + 2 + end
		default:
			end := k
			for end < len(meta) && !isSpace(meta[end]) {
				end++
			}
			attrs.items = append(attrs.items, Attribute{Key: key, Value: meta[k:end], start: start, end: end})
			i = end
		}
	}

	return attrs
}

// Get returns the value for key and whether it was present.
func (a Attributes) Get(key string) (string, bool) {
	for i := len(a.items) - 1; i >= 0; i-- {
		if a.items[i].Key == key {
			return a.items[i].Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or fallback when absent or empty.
func (a Attributes) Value(key, fallback string) string {
	if v, ok := a.Get(key); ok && v != "" {
		return v
	}
	return fallback
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Bool returns fallback when key is absent, false when its value is the
// literal "false", and true otherwise.
func (a Attributes) Bool(key string, fallback bool) bool {
	v, ok := a.Get(key)
	if !ok {
		return fallback
	}
	return v != "false"
}

// Float returns the numeric value for key, or fallback when absent or invalid.
func (a Attributes) Float(key string, fallback float64) float64 {
	v, ok := a.Get(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Items returns the parsed attributes in source order.
func (a Attributes) Items() []Attribute {
	return append([]Attribute(nil), a.items...)
}

// Len returns the number of parsed attributes.
func (a Attributes) Len() int {
	return len(a.items)
}

// Without returns the original meta string with the given keys' tokens
// removed and whitespace collapsed.
func (a Attributes) Without(keys ...string) string {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	var b strings.Builder
	last := 0
	for _, item := range a.items {
		if !drop[item.Key] {
			continue
		}
		b.WriteString(a.raw[last:item.start])
		last = item.end
	}
	b.WriteString(a.raw[last:])

	return strings.Join(strings.Fields(b.String()), " ")
}

func isKeyByte(c byte) bool {
	return c == '_' || c < 0x80 && (unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
