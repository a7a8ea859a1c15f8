package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-mdtypst/internal/codeblock"
	"github.com/alnah/go-mdtypst/internal/mathspan"
	"github.com/alnah/go-mdtypst/internal/mdast"
)

// Sentinel errors for the conversion stages.
var (
	ErrParse          = errors.New("markdown parsing failed")
	ErrHTMLConversion = errors.New("HTML conversion failed")
)

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = "github"

// Transformer priorities. goldmark runs higher values first: math spans are
// resolved before fenced blocks are classified.
const (
	mathPriority     = 200
	codePriority     = 100
	rendererPriority = 500
)

// Document is a parsed source file with its placeholders still unresolved
// until a Resolver has run over Root.
type Document struct {
	// Name is the id prefix of the document's code blocks.
	Name        string
	Source      []byte
	Root        ast.Node
	FrontMatter FrontMatter
	// Title is the front matter title, else the first level-one heading.
	Title string
}

// Engine parses Markdown into a placeholder tree and renders resolved trees
// to HTML fragments. It is safe for concurrent use.
type Engine struct {
	md              goldmark.Markdown
	logger          zerolog.Logger
	headingUnicode  bool
	inlineCode      bool
	defaultLanguage string
	highlightStyle  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger passed to the transform passes.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithHeadingUnicode toggles Unicode translation of math in headings.
func WithHeadingUnicode(enabled bool) Option {
	return func(e *Engine) {
		e.headingUnicode = enabled
	}
}

// WithInlineCodeUnicode toggles LaTeX symbol translation in inline code.
func WithInlineCodeUnicode(enabled bool) Option {
	return func(e *Engine) {
		e.inlineCode = enabled
	}
}

// WithDefaultLanguage sets the language of executable blocks that name none.
func WithDefaultLanguage(lang string) Option {
	return func(e *Engine) {
		e.defaultLanguage = lang
	}
}

// WithHighlightStyle sets the chroma style name. Unknown names fall back to
// chroma's default style.
func WithHighlightStyle(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.highlightStyle = name
		}
	}
}

// NewEngine creates an Engine with GFM extensions, footnotes, syntax
// highlighting and the math and code block passes.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:          zerolog.Nop(),
		headingUnicode:  true,
		defaultLanguage: codeblock.DefaultLanguage,
		highlightStyle:  DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(e)
	}

	math := mathspan.NewTransformer(
		mathspan.WithLogger(e.logger),
		mathspan.WithHeadingUnicode(e.headingUnicode),
		mathspan.WithInlineCodeUnicode(e.inlineCode),
	)
	code := codeblock.NewTransformer(
		codeblock.WithLogger(e.logger),
		codeblock.WithDefaultLanguage(e.defaultLanguage),
	)

	e.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(e.highlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(math, mathPriority),
				util.Prioritized(code, codePriority),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Note: WithUnsafe() intentionally NOT used. Raw HTML in sources is
			// dropped; rendered SVG is written by the placeholder renderers.
			renderer.WithNodeRenderers(
				util.Prioritized(newNodeRenderer(e.highlightStyle), rendererPriority),
			),
		),
	)
	return e
}

// Parse preprocesses content and parses it into a Document. path names the
// source file and fixes the id prefix of its code blocks; it may be empty.
// Supports context cancellation via goroutine + select pattern since
// goldmark doesn't natively support context.
func (e *Engine) Parse(ctx context.Context, content []byte, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		doc *Document
		err error
	}
	done := make(chan result, 1)

	go func() {
		body, fm, err := Preprocess(content)
		if err != nil {
			done <- result{err: err}
			return
		}

		name := mdast.DocumentName(path)
		root := e.md.Parser().Parse(text.NewReader(body), parser.WithContext(mdast.NewContext(name)))
		if root == nil {
			done <- result{err: ErrParse}
			return
		}

		doc := &Document{
			Name:        name,
			Source:      body,
			Root:        root,
			FrontMatter: fm,
			Title:       fm.Title(),
		}
		if doc.Title == "" {
			doc.Title = firstHeading(root, body)
		}
		done <- result{doc: doc}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.doc, r.err
	}
}

// Render writes doc's tree as an HTML fragment.
func (e *Engine) Render(ctx context.Context, doc *Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := e.md.Renderer().Render(&buf, doc.Source, doc.Root); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// HighlightCSS returns the stylesheet for the classes emitted by the code
// highlighter.
func (e *Engine) HighlightCSS() (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(e.highlightStyle)); err != nil {
		return "", fmt.Errorf("writing highlight styles: %w", err)
	}
	return buf.String(), nil
}

// firstHeading returns the plain text of the first level-one heading.
func firstHeading(root ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			if h.Level == 1 {
				title = strings.TrimSpace(plainText(h, source))
				return ast.WalkStop, nil
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *mdast.UnicodeCode:
			b.WriteString(c.Value)
		case *mdast.MathSpan:
			b.WriteString(c.Source())
		default:
			b.WriteString(plainText(c, source))
		}
	}
	return b.String()
}
