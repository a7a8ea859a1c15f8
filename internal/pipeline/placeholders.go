package pipeline

import (
	"regexp"
	"strconv"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-mdtypst/internal/codeblock"
	"github.com/alnah/go-mdtypst/internal/mdast"
	"github.com/alnah/go-mdtypst/internal/render"
)

// CSS classes on the elements written for placeholders.
const (
	ClassMath           = "typst-math"
	ClassInline         = "typst-inline"
	ClassDisplay        = "typst-display"
	ClassBlock          = "typst-block"
	ClassNoEval         = "typst-no-eval"
	ClassDiagram        = "typst-diagram"
	ClassError          = "typst-error"
	ClassCodeBlock      = "code-block"
	ClassCodeWithOutput = "code-with-output"
	ClassCodeOutput     = "code-output"
	ClassStatements     = "code-statements"
	ClassStatementOut   = "statement-output"
	ClassUnicode        = "unicode"
)

var cssLength = regexp.MustCompile(`^\d+(?:\.\d+)?(?:%|px|pt|em|rem|vw)$`)

var alignments = map[string]bool{
	"left":    true,
	"center":  true,
	"right":   true,
	"justify": true,
	"start":   true,
	"end":     true,
}

// nodeRenderer writes HTML for the mdast placeholder kinds.
type nodeRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newNodeRenderer(style string) *nodeRenderer {
	return &nodeRenderer{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		style:     styles.Get(style),
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(mdast.KindMathSpan, r.renderMathSpan)
	reg.Register(mdast.KindHardBreak, r.renderHardBreak)
	reg.Register(mdast.KindUnicodeCode, r.renderUnicodeCode)
	reg.Register(mdast.KindTypstBlock, r.renderTypstBlock)
	reg.Register(mdast.KindDiagram, r.renderDiagram)
	reg.Register(mdast.KindExecutableCode, r.renderExecutableCode)
	reg.Register(mdast.KindCodeWithOutput, r.renderCodeWithOutput)
}

func (r *nodeRenderer) renderMathSpan(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*mdast.MathSpan)

	delim := "$"
	mode := ClassInline
	if n.Display {
		delim = "$$"
		mode = ClassDisplay
	}

	switch {
	case n.Rendered == nil:
		// Content is stored escaped and is already safe to write.
		_, _ = w.WriteString(delim + n.Content + delim)
	case n.Rendered.Err != nil:
		writeError(w, "span", n.Rendered.Err)
	default:
		_, _ = w.WriteString(`<span class="` + ClassMath + " " + mode + `">`)
		_, _ = w.WriteString(n.Rendered.SVG)
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderHardBreak(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<br />\n")
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderUnicodeCode(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*mdast.UnicodeCode)
	_, _ = w.WriteString(`<code class="` + ClassUnicode + `">`)
	writeEscaped(w, n.Value)
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderTypstBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*mdast.TypstBlock)

	if !n.Eval {
		_, _ = w.WriteString(`<div class="` + ClassNoEval + `">`)
		r.highlight(w, n.Language, n.Code)
		_, _ = w.WriteString("</div>\n")
		return ast.WalkSkipChildren, nil
	}

	align := n.Align
	if !alignments[align] {
		align = codeblock.DefaultAlign
	}
	_, _ = w.WriteString(`<div class="` + ClassBlock + `" style="text-align: ` + align + `">`)
	r.writeRendered(w, n.Rendered, n.Language, n.Code)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderDiagram(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*mdast.Diagram)

	_, _ = w.WriteString(`<div class="` + ClassDiagram + `"`)
	if style := diagramStyle(n.Options); style != "" {
		_, _ = w.WriteString(` style="` + style + `"`)
	}
	_ = w.WriteByte('>')
	r.writeRendered(w, n.Rendered, codeblock.DiagramLanguage, n.Code)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderExecutableCode(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*mdast.ExecutableCode)

	_, _ = w.WriteString(`<div class="` + ClassCodeBlock + `"`)
	writeDataAttrs(w, n.Language, n.ID, n.Session, n.Eval)
	_ = w.WriteByte('>')
	r.highlight(w, n.Language, n.Code)
	writeOutput(w, n.Output)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// renderCodeWithOutput lets the original fenced block render as a child and
// appends the captured output after it.
func (r *nodeRenderer) renderCodeWithOutput(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*mdast.CodeWithOutput)
	if entering {
		_, _ = w.WriteString(`<div class="` + ClassCodeWithOutput + `"`)
		writeDataAttrs(w, n.Language, n.ID, n.Session, n.Eval)
		_, _ = w.WriteString(">\n")
		return ast.WalkContinue, nil
	}
	writeOutput(w, n.Output)
	_, _ = w.WriteString("</div>\n")
	return ast.WalkContinue, nil
}

// writeRendered writes the SVG, the error marker, or the highlighted source
// when the placeholder was never resolved.
func (r *nodeRenderer) writeRendered(w util.BufWriter, res *mdast.Rendered, lang, code string) {
	switch {
	case res == nil:
		r.highlight(w, lang, code)
	case res.Err != nil:
		writeError(w, "div", res.Err)
	default:
		_, _ = w.WriteString(res.SVG)
	}
}

// highlight writes code through chroma, or as escaped plain text when the
// lexer fails.
func (r *nodeRenderer) highlight(w util.BufWriter, lang, code string) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code+"\n")
	if err == nil {
		err = r.formatter.Format(w, r.style, it)
	}
	if err != nil {
		_, _ = w.WriteString("<pre><code>")
		writeEscaped(w, code)
		_, _ = w.WriteString("</code></pre>")
	}
}

func writeOutput(w util.BufWriter, out *mdast.Output) {
	if out == nil {
		return
	}
	if len(out.Parts) > 0 {
		_, _ = w.WriteString(`<ol class="` + ClassStatements + `">`)
		for _, p := range out.Parts {
			_, _ = w.WriteString("<li><code>")
			writeEscaped(w, p.Statement)
			_, _ = w.WriteString("</code>")
			if p.Output != "" {
				_, _ = w.WriteString(`<pre class="` + ClassStatementOut + `">`)
				writeEscaped(w, p.Output)
				_, _ = w.WriteString("</pre>")
			}
			_, _ = w.WriteString("</li>")
		}
		_, _ = w.WriteString("</ol>\n")
		return
	}
	if out.Text == "" {
		return
	}
	_, _ = w.WriteString(`<pre class="` + ClassCodeOutput + `"><code>`)
	writeEscaped(w, out.Text)
	_, _ = w.WriteString("</code></pre>\n")
}

func writeError(w util.BufWriter, tag string, err error) {
	_, _ = w.WriteString("<" + tag + ` class="` + ClassError + `">`)
	writeEscaped(w, render.Marker(err))
	_, _ = w.WriteString("</" + tag + ">")
}

func writeDataAttrs(w util.BufWriter, lang, id, session string, eval bool) {
	writeAttr(w, "data-language", lang)
	writeAttr(w, "data-id", id)
	if session != "" {
		writeAttr(w, "data-session", session)
	}
	writeAttr(w, "data-eval", strconv.FormatBool(eval))
}

func writeAttr(w util.BufWriter, key, val string) {
	_, _ = w.WriteString(" " + key + `="`)
	writeEscaped(w, val)
	_ = w.WriteByte('"')
}

func writeEscaped(w util.BufWriter, s string) {
	_, _ = w.Write(util.EscapeHTML([]byte(s)))
}

// diagramStyle returns the inline size declarations for valid CSS lengths.
func diagramStyle(o mdast.DiagramOptions) string {
	var style string
	if cssLength.MatchString(o.Width) {
		style = "width: " + o.Width + ";"
	}
	if cssLength.MatchString(o.Height) {
		if style != "" {
			style += " "
		}
		style += "height: " + o.Height + ";"
	}
	return style
}
