// Package mathspan finds $-delimited math spans in paragraph text and
// rebuilds the paragraph's inline children around them.
//
// Markup already splits paragraph text across sibling nodes, so detection
// works on a logical string: the text of every child concatenated, with one
// U+FFFC placeholder per non-text child. A single linear scan turns that
// string into tokens, and the resolver pairs delimiters of equal run length.
package mathspan

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"

	"github.com/alnah/go-mdtypst/internal/mdast"
)

// objectReplacement stands in for a non-text child in the logical string.
const objectReplacement = "\uFFFC"

// TokenKind classifies a token.
type TokenKind int

// Token kinds.
const (
	TextToken TokenKind = iota
	DelimiterToken
	OpaqueToken
)

func (k TokenKind) String() string {
	switch k {
	case TextToken:
		return "text"
	case DelimiterToken:
		return "delimiter"
	case OpaqueToken:
		return "opaque"
	}
	return "unknown"
}

// Token is one unit of a paragraph's logical string.
// Value holds the text or the delimiter run; Node is set for opaque tokens.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
	Node  ast.Node
}

// Run returns the delimiter run length (0 for other kinds).
func (t Token) Run() int {
	if t.Kind != DelimiterToken {
		return 0
	}
	return len(t.Value)
}

// Tokenize scans children and returns their token stream. It returns nil
// when the text holds no '$', so callers can leave the paragraph untouched
// without building anything.
func Tokenize(children []ast.Node, source []byte) []Token {
	logical, opaque := logicalText(children, source)
	if !strings.Contains(logical, "$") {
		return nil
	}
	return scan(logical, opaque)
}

// Children returns the direct children of n as a slice.
func Children(n ast.Node) []ast.Node {
	out := make([]ast.Node, 0, n.ChildCount())
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

func logicalText(children []ast.Node, source []byte) (string, map[int]ast.Node) {
	var b strings.Builder
	opaque := make(map[int]ast.Node)

	for _, child := range children {
		switch n := child.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(source))
			switch {
			case n.HardLineBreak():
				opaque[b.Len()] = &mdast.HardBreak{}
				b.WriteString(objectReplacement)
			case n.SoftLineBreak():
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(n.Value)
		default:
			opaque[b.Len()] = child
			b.WriteString(objectReplacement)
		}
	}

	return b.String(), opaque
}

func scan(s string, opaque map[int]ast.Node) []Token {
	var tokens []Token

	for i := 0; i < len(s); {
		if s[i] == '$' {
			j := i
			for j < len(s) && s[j] == '$' {
				j++
			}
			tokens = append(tokens, Token{Kind: DelimiterToken, Value: s[i:j], Pos: i})
			i = j
			continue
		}

		if n, ok := opaque[i]; ok {
			tokens = append(tokens, Token{Kind: OpaqueToken, Value: objectReplacement, Pos: i, Node: n})
			i += len(objectReplacement)
			continue
		}

		j := i
		for j < len(s) && s[j] != '$' {
			if _, ok := opaque[j]; ok {
				break
			}
			// A backslash-escaped dollar is text, as is an escaped backslash.
			if s[j] == '\\' && j+1 < len(s) && (s[j+1] == '$' || s[j+1] == '\\') {
				j += 2
				continue
			}
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
		}
		tokens = append(tokens, Token{Kind: TextToken, Value: s[i:j], Pos: i})
		i = j
	}

	return tokens
}
