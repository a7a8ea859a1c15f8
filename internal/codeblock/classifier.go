// Package codeblock classifies fenced code blocks into the placeholder kinds
// the build resolves later: executable code, code with captured output,
// Typst source blocks and commutative diagrams.
package codeblock

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-mdtypst/internal/mdast"
)

// Language tags with a meaning of their own.
const (
	ExecMarker      = "code"
	DiagramLanguage = "diagram"
	typstPrefix     = "typst"
)

// DefaultLanguage is the interpreter used when an executable block names none.
const DefaultLanguage = "python"

// DefaultAlign is the alignment of a Typst block without :align.
const DefaultAlign = "center"

var validID = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Transformer is a goldmark AST transformer that replaces or wraps fenced
// code blocks according to their language tag and meta attributes.
type Transformer struct {
	logger          zerolog.Logger
	defaultLanguage string
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger for classification warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transformer) {
		t.logger = l
	}
}

// WithDefaultLanguage sets the language of executable blocks without
// :language. Empty values are ignored.
func WithDefaultLanguage(lang string) Option {
	return func(t *Transformer) {
		if lang != "" {
			t.defaultLanguage = lang
		}
	}
}

// NewTransformer returns a Transformer with the given options applied.
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		logger:          zerolog.Nop(),
		defaultLanguage: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform implements parser.ASTTransformer. Blocks are visited in source
// order, so automatic ids are stable for a given document.
func (t *Transformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	d := mdast.DocumentFrom(pc)

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, ok := n.(*ast.FencedCodeBlock); ok {
			blocks = append(blocks, fb)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fb := range blocks {
		t.classify(fb, source, d)
	}
}

func (t *Transformer) classify(fb *ast.FencedCodeBlock, source []byte, d *mdast.Document) {
	parent := fb.Parent()
	if parent == nil {
		return
	}

	lang, meta := splitInfo(fb, source)
	attrs := mdast.ParseMeta(meta)

	var replacement ast.Node
	switch {
	case lang == ExecMarker:
		replacement = t.executable(fb, source, attrs, d)
	case attrs.Has("exec"):
		t.wrap(fb, parent, lang, source, attrs, d)
		return
	case strings.HasPrefix(lang, typstPrefix):
		replacement = &mdast.TypstBlock{
			Code:     blockCode(fb, source),
			Language: lang,
			Align:    attrs.Value("align", DefaultAlign),
			Eval:     attrs.Bool("eval", true),
		}
	case lang == DiagramLanguage:
		replacement = &mdast.Diagram{
			Code:    blockCode(fb, source),
			Options: diagramOptions(attrs),
		}
	}

	if replacement != nil {
		parent.ReplaceChild(parent, fb, replacement)
	}
}

func (t *Transformer) executable(fb *ast.FencedCodeBlock, source []byte, attrs mdast.Attributes, d *mdast.Document) ast.Node {
	id, ok := t.blockID(attrs, d)
	if !ok {
		return nil
	}

	return &mdast.ExecutableCode{
		Language: attrs.Value("language", t.defaultLanguage),
		ID:       id,
		Session:  attrs.Value("session", ""),
		Filename: attrs.Value("filename", d.Filename),
		Eval:     attrs.Bool("eval", true),
		Code:     blockCode(fb, source),
	}
}

// wrap puts fb under a CodeWithOutput container; fb itself is kept so its
// rendering is unchanged.
func (t *Transformer) wrap(fb *ast.FencedCodeBlock, parent ast.Node, lang string, source []byte, attrs mdast.Attributes, d *mdast.Document) {
	id, ok := t.blockID(attrs, d)
	if !ok {
		return
	}

	w := &mdast.CodeWithOutput{
		ID:       id,
		Session:  attrs.Value("session", ""),
		Language: attrs.Value("language", lang),
		Filename: attrs.Value("filename", d.Filename),
		Meta:     attrs.Without("exec", "id", "eval"),
		Eval:     attrs.Bool("eval", true),
		Code:     blockCode(fb, source),
	}
	parent.ReplaceChild(parent, fb, w)
	w.AppendChild(w, fb)
}

// blockID returns the explicit id when valid, or the next automatic one.
// An invalid explicit id leaves the block unconverted.
func (t *Transformer) blockID(attrs mdast.Attributes, d *mdast.Document) (string, bool) {
	id, explicit := attrs.Get("id")
	if !explicit {
		return d.NextID(), true
	}
	if !validID.MatchString(id) {
		t.logger.Warn().
			Str("document", d.Filename).
			Str("id", id).
			Msg("invalid block id, leaving code block unconverted")
		return "", false
	}
	return id, true
}

// splitInfo returns the language tag and the remaining meta string. An info
// string that starts with an attribute has no language.
func splitInfo(fb *ast.FencedCodeBlock, source []byte) (string, string) {
	if fb.Info == nil {
		return "", ""
	}
	info := strings.TrimSpace(string(fb.Info.Segment.Value(source)))
	if strings.HasPrefix(info, ":") {
		return "", info
	}
	lang, meta, _ := strings.Cut(info, " ")
	return lang, strings.TrimSpace(meta)
}

// blockCode returns the block's text verbatim, minus one trailing newline.
func blockCode(fb *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder
	lines := fb.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func diagramOptions(attrs mdast.Attributes) mdast.DiagramOptions {
	return mdast.DiagramOptions{
		Scale:        attrs.Float("scale", 0),
		Width:        attrs.Value("width", ""),
		Height:       attrs.Value("height", ""),
		NodePadding:  attrs.Value("nodePadding", ""),
		ArrClearance: attrs.Value("arrClearance", ""),
		Padding:      attrs.Value("padding", ""),
		Debug:        attrs.Bool("debug", false),
	}
}
