package mathspan

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-mdtypst/internal/mdast"
	"github.com/alnah/go-mdtypst/internal/symbols"
)

// Transformer is a goldmark AST transformer that replaces math spans in
// paragraphs with mdast.MathSpan placeholders. Math in headings becomes
// Unicode text, and inline code can optionally get the same treatment.
type Transformer struct {
	logger     zerolog.Logger
	headings   bool
	inlineCode bool
	latex      *symbols.Translator
	typst      *symbols.Translator
	braceStrip *strings.Replacer
	emit       Emitter
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transformer) {
		t.logger = l
	}
}

// WithHeadingUnicode toggles Unicode translation of math in headings.
// When disabled, heading math stays as written. Enabled by default.
func WithHeadingUnicode(enabled bool) Option {
	return func(t *Transformer) {
		t.headings = enabled
	}
}

// WithInlineCodeUnicode toggles LaTeX symbol translation in inline code.
// Disabled by default.
func WithInlineCodeUnicode(enabled bool) Option {
	return func(t *Transformer) {
		t.inlineCode = enabled
	}
}

// NewTransformer returns a Transformer with the given options applied.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		logger:     zerolog.Nop(),
		headings:   true,
		latex:      symbols.LaTeX(),
		typst:      symbols.Typst(),
		braceStrip: strings.NewReplacer("{", "", "}", ""),
		emit:       MathEmitter,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform implements parser.ASTTransformer.
func (t *Transformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var (
		blocks    []ast.Node
		headings  []*ast.Heading
		codeSpans []*ast.CodeSpan
	)

	// Collect first so the rewrites below never touch a list being walked.
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			blocks = append(blocks, n)
		case *ast.Heading:
			headings = append(headings, n)
		case *ast.CodeSpan:
			codeSpans = append(codeSpans, n)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	spans := 0
	for _, b := range blocks {
		spans += Rewrite(b, source, t.emit)
	}
	if t.headings {
		for _, h := range headings {
			Rewrite(h, source, t.headingEmitter)
		}
	}
	if t.inlineCode {
		for _, c := range codeSpans {
			t.rewriteCodeSpan(c, source)
		}
	}

	if spans > 0 {
		t.logger.Debug().
			Str("document", mdast.DocumentFrom(pc).Filename).
			Int("spans", spans).
			Msg("math spans resolved")
	}
}

// Rewrite resolves the math spans among n's children and, when at least one
// resolved, swaps in the rebuilt child list. It returns the number of spans
// resolved; n is left untouched when that number is zero.
func Rewrite(n ast.Node, source []byte, emit Emitter) int {
	tokens := Tokenize(Children(n), source)
	if tokens == nil {
		return 0
	}

	children, resolved := Resolve(tokens, source, emit)
	if resolved == 0 {
		return 0
	}

	n.RemoveChildren(n)
	for _, c := range children {
		n.AppendChild(n, c)
	}
	return resolved
}

// headingEmitter turns a heading's math into plain Unicode text. Spans with
// nothing to translate keep their source form.
func (t *Transformer) headingEmitter(s Span) ast.Node {
	src := strings.TrimSpace(s.Raw)
	out := t.typst.Translate(t.latex.Translate(src))
	out = strings.TrimSpace(t.braceStrip.Replace(out))

	if out == "" || out == src {
		return ast.NewString([]byte(s.Literal()))
	}
	return ast.NewString([]byte(out))
}

func (t *Transformer) rewriteCodeSpan(c *ast.CodeSpan, source []byte) {
	parent := c.Parent()
	if parent == nil {
		return
	}

	var b strings.Builder
	for child := c.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(source))
		case *ast.String:
			b.Write(n.Value)
		}
	}

	raw := b.String()
	translated := t.latex.Translate(raw)
	if translated == raw {
		return
	}
	parent.ReplaceChild(parent, c, &mdast.UnicodeCode{Value: translated})
}
