package mathspan

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"

	"github.com/alnah/go-mdtypst/internal/mdast"
)

// Span is a matched delimiter pair and the content between them.
type Span struct {
	// Raw is the reconstructed content as written, emphasis restored.
	Raw string
	// Content is Raw escaped and trimmed.
	Content string
	Run     int
	Display bool
}

// Literal returns the span as it appeared in the source, delimiters included.
func (s Span) Literal() string {
	d := strings.Repeat("$", s.Run)
	return d + s.Raw + d
}

// Emitter builds the node that replaces a resolved span.
type Emitter func(Span) ast.Node

// MathEmitter emits mdast.MathSpan placeholders.
func MathEmitter(s Span) ast.Node {
	return mdast.NewMathSpan(s.Content, s.Display)
}

// Resolve pairs delimiters in tokens and returns the rebuilt child list and
// the number of spans resolved. Unpaired delimiters and spans holding
// anything other than text, emphasis or strong stay literal.
func Resolve(tokens []Token, source []byte, emit Emitter) ([]ast.Node, int) {
	var (
		out      []ast.Node
		pending  strings.Builder
		resolved int
	)

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		out = append(out, ast.NewString([]byte(pending.String())))
		pending.Reset()
	}

	for i := 0; i < len(tokens); {
		tok := tokens[i]

		switch tok.Kind {
		case TextToken:
			pending.WriteString(tok.Value)
			i++
			continue
		case OpaqueToken:
			flush()
			out = append(out, tok.Node)
			i++
			continue
		}

		closer := findCloser(tokens, i)
		if closer < 0 {
			pending.WriteString(tok.Value)
			i++
			continue
		}

		raw, ok := spanContent(tokens[i+1:closer], source)
		content := strings.TrimSpace(mdast.Escape(raw))
		if !ok || content == "" {
			// Rejected: the opener becomes text and scanning resumes right
			// after it, so the inner tokens are handled on their own.
			pending.WriteString(tok.Value)
			i++
			continue
		}

		flush()
		out = append(out, emit(Span{
			Raw:     raw,
			Content: content,
			Run:     tok.Run(),
			Display: isDisplay(tok.Run(), raw),
		}))
		resolved++
		i = closer + 1
	}

	flush()
	return out, resolved
}

func findCloser(tokens []Token, open int) int {
	run := tokens[open].Run()
	for j := open + 1; j < len(tokens); j++ {
		if tokens[j].Kind == DelimiterToken && tokens[j].Run() == run {
			return j
		}
	}
	return -1
}

func spanContent(tokens []Token, source []byte) (string, bool) {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TextToken, DelimiterToken:
			b.WriteString(tok.Value)
		case OpaqueToken:
			em, ok := tok.Node.(*ast.Emphasis)
			if !ok {
				return "", false
			}
			inner, ok := emphasisContent(em, source)
			if !ok {
				return "", false
			}
			b.WriteString(inner)
		}
	}
	return b.String(), true
}

// emphasisContent rebuilds the marker form of an emphasis node:
// _inner_ for level 1, **inner** for strong.
func emphasisContent(em *ast.Emphasis, source []byte) (string, bool) {
	var b strings.Builder
	for c := em.FirstChild(); c != nil; c = c.NextSibling() {
		s, ok := inlineContent(c, source)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}

	marker := "_"
	if em.Level >= 2 {
		marker = "**"
	}
	return marker + b.String() + marker, true
}

func inlineContent(n ast.Node, source []byte) (string, bool) {
	switch n := n.(type) {
	case *ast.Text:
		s := string(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return s, true
	case *ast.String:
		return string(n.Value), true
	case *ast.Emphasis:
		return emphasisContent(n, source)
	}
	return "", false
}

func isDisplay(run int, raw string) bool {
	if run == 2 {
		return true
	}
	if raw == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(raw)
	last, _ := utf8.DecodeLastRuneInString(raw)
	return unicode.IsSpace(first) && unicode.IsSpace(last)
}
