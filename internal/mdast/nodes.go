package mdast

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
)

// Node kinds for placeholders inserted by the transform passes.
var (
	KindMathSpan       = ast.NewNodeKind("MathSpan")
	KindTypstBlock     = ast.NewNodeKind("TypstBlock")
	KindDiagram        = ast.NewNodeKind("Diagram")
	KindExecutableCode = ast.NewNodeKind("ExecutableCode")
	KindCodeWithOutput = ast.NewNodeKind("CodeWithOutput")
	KindHardBreak      = ast.NewNodeKind("HardBreak")
	KindUnicodeCode    = ast.NewNodeKind("UnicodeCode")
)

// Rendered is the resolved form of a math or diagram placeholder.
// Exactly one of SVG or Err is meaningful.
type Rendered struct {
	SVG string
	Err error
}

// OutputPart is the output attributed to one statement of a block.
type OutputPart struct {
	Statement string
	Output    string
}

// Output is the captured execution result of a code placeholder.
type Output struct {
	Text  string
	Parts []OutputPart
}

// ---------------------------------------------------------------------------
// Inline placeholders
// ---------------------------------------------------------------------------

// MathSpan is an inline or display math span found in paragraph text.
// Content is escaped; use Source for the text handed to the compiler.
type MathSpan struct {
	ast.BaseInline
	Content  string
	Display  bool
	Rendered *Rendered
}

// NewMathSpan returns a MathSpan holding already escaped content.
func NewMathSpan(escaped string, display bool) *MathSpan {
	return &MathSpan{Content: escaped, Display: display}
}

// Source returns the unescaped span content.
func (n *MathSpan) Source() string {
	return Unescape(n.Content)
}

// Kind implements ast.Node.
func (n *MathSpan) Kind() ast.NodeKind {
	return KindMathSpan
}

// Dump implements ast.Node.
func (n *MathSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Content": n.Content,
		"Display": strconv.FormatBool(n.Display),
	}, nil)
}

// HardBreak stands in for a hard line break that ended a text node when the
// paragraph's children were rebuilt.
type HardBreak struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *HardBreak) Kind() ast.NodeKind {
	return KindHardBreak
}

// Dump implements ast.Node.
func (n *HardBreak) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// UnicodeCode is an inline code span whose text was rewritten.
type UnicodeCode struct {
	ast.BaseInline
	Value string
}

// Kind implements ast.Node.
func (n *UnicodeCode) Kind() ast.NodeKind {
	return KindUnicodeCode
}

// Dump implements ast.Node.
func (n *UnicodeCode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// ---------------------------------------------------------------------------
// Block placeholders
// ---------------------------------------------------------------------------

// TypstBlock is a fenced block of raw Typst source.
type TypstBlock struct {
	ast.BaseBlock
	Code     string
	Language string
	Align    string
	Eval     bool
	Rendered *Rendered
}

// Kind implements ast.Node.
func (n *TypstBlock) Kind() ast.NodeKind {
	return KindTypstBlock
}

// Dump implements ast.Node.
func (n *TypstBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Align": n.Align,
		"Eval":  strconv.FormatBool(n.Eval),
	}, nil)
}

// DiagramOptions are the layout attributes of a diagram block. Empty
// strings and a zero Scale mean "use the package default".
type DiagramOptions struct {
	Scale        float64
	Width        string
	Height       string
	NodePadding  string
	ArrClearance string
	Padding      string
	Debug        bool
}

// Diagram is a commutative diagram block.
type Diagram struct {
	ast.BaseBlock
	Code     string
	Options  DiagramOptions
	Rendered *Rendered
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind {
	return KindDiagram
}

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Scale": strconv.FormatFloat(n.Options.Scale, 'f', -1, 64),
	}, nil)
}

// ExecutableCode replaces a fenced block tagged with the execution marker
// language. Code is verbatim minus one trailing newline.
type ExecutableCode struct {
	ast.BaseBlock
	Language string
	ID       string
	Session  string
	Filename string
	Eval     bool
	Code     string
	Output   *Output
}

// Key returns the output map key for this block.
func (n *ExecutableCode) Key() string {
	return OutputKey(n.Filename, n.ID)
}

// Kind implements ast.Node.
func (n *ExecutableCode) Kind() ast.NodeKind {
	return KindExecutableCode
}

// Dump implements ast.Node.
func (n *ExecutableCode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Language": n.Language,
		"ID":       n.ID,
		"Session":  n.Session,
		"Eval":     strconv.FormatBool(n.Eval),
	}, nil)
}

// CodeWithOutput wraps a fenced block marked for output capture. The
// original block stays as the only child so its highlighting is unchanged.
type CodeWithOutput struct {
	ast.BaseBlock
	ID       string
	Session  string
	Language string
	Filename string
	Meta     string
	Eval     bool
	Code     string
	Output   *Output
}

// Key returns the output map key for this block.
func (n *CodeWithOutput) Key() string {
	return OutputKey(n.Filename, n.ID)
}

// Kind implements ast.Node.
func (n *CodeWithOutput) Kind() ast.NodeKind {
	return KindCodeWithOutput
}

// Dump implements ast.Node.
func (n *CodeWithOutput) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"ID":   n.ID,
		"Eval": strconv.FormatBool(n.Eval),
		"Meta": n.Meta,
	}, nil)
}
