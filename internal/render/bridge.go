package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdtypst/internal/mdast"
)

// Defaults for document synthesis and sizing.
const (
	DefaultPreamble          = `#import "@preview/commute:0.3.0": node, arr, commutative-diagram`
	DefaultReferenceSize     = 11.0
	DefaultLargePageWidth    = "1000pt"
	DefaultFallbackPageWidth = "300pt"
	DefaultCacheKeep         = 10

	// AutoPageWidth lets the page shrink to its content.
	AutoPageWidth = "auto"
)

var (
	percentWidth      = regexp.MustCompile(`width\s*:\s*\d+(?:\.\d+)?\s*%`)
	imagePercentWidth = regexp.MustCompile(`image\([^)]*width\s*:\s*\d+(?:\.\d+)?\s*%`)
)

// Options describe one render request.
type Options struct {
	// Display wraps the source as display math ("$ src $").
	Display bool
	// Block passes the source through as a complete Typst body.
	Block bool
	// Preamble replaces the renderer's import line when non-empty.
	Preamble string
	// Setup is inserted after the page rule.
	Setup string
	// PageWidth forces the page width, bypassing percent detection.
	PageWidth string
	// Scale multiplies the em size. Zero means 1.
	Scale float64
}

// Result is a rendered graphic. Width and Height are in em and are zero
// for fluid results.
type Result struct {
	SVG          string
	Width        float64
	Height       float64
	Fluid        bool
	UsedFallback bool
}

// Renderer synthesizes Typst documents, compiles them and sizes the SVG.
// It is safe for concurrent use when its Compiler is.
type Renderer struct {
	compiler          Compiler
	logger            zerolog.Logger
	preamble          string
	referenceSize     float64
	largePageWidth    string
	fallbackPageWidth string
	cacheKeep         int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithPreamble sets the default import line.
func WithPreamble(p string) Option {
	return func(r *Renderer) {
		if p != "" {
			r.preamble = p
		}
	}
}

// WithReferenceSize sets the font size, in points, that maps to 1em.
func WithReferenceSize(size float64) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.referenceSize = size
		}
	}
}

// WithLargePageWidth sets the page width used when the source has a
// percentage width.
func WithLargePageWidth(w string) Option {
	return func(r *Renderer) {
		if w != "" {
			r.largePageWidth = w
		}
	}
}

// WithFallbackPageWidth sets the page width of the second render.
func WithFallbackPageWidth(w string) Option {
	return func(r *Renderer) {
		if w != "" {
			r.fallbackPageWidth = w
		}
	}
}

// WithCacheKeep sets how many entries an evictable compiler keeps after
// each render.
func WithCacheKeep(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.cacheKeep = n
		}
	}
}

// New returns a Renderer over compiler.
func New(compiler Compiler, opts ...Option) *Renderer {
	r := &Renderer{
		compiler:          compiler,
		logger:            zerolog.Nop(),
		preamble:          DefaultPreamble,
		referenceSize:     DefaultReferenceSize,
		largePageWidth:    DefaultLargePageWidth,
		fallbackPageWidth: DefaultFallbackPageWidth,
		cacheKeep:         DefaultCacheKeep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render compiles source and returns the sized SVG. Math sources arrive in
// their escaped placeholder form; block sources are used as written.
func (r *Renderer) Render(ctx context.Context, source string, opts Options) (*Result, error) {
	defer r.evict()

	src := Prepare(source, opts.Block)
	if src == "" {
		return nil, ErrEmptySource
	}

	fluid := HasPercentWidth(src)
	width := opts.PageWidth
	switch {
	case width != "":
	case fluid:
		width = r.largePageWidth
	default:
		width = AutoPageWidth
	}

	img, err := r.compile(ctx, r.Document(src, opts, width))
	if err != nil {
		return nil, err
	}

	res := &Result{Fluid: fluid}
	if !fluid && img.width <= 0 {
		r.logger.Debug().
			Str("pageWidth", r.fallbackPageWidth).
			Msg("no intrinsic width, rendering again")
		img, err = r.compile(ctx, r.Document(src, opts, r.fallbackPageWidth))
		if err != nil {
			return nil, err
		}
		res.UsedFallback = true
	}

	if fluid || res.UsedFallback {
		img.sizeFluid()
	} else {
		scale := opts.Scale
		if scale <= 0 {
			scale = 1
		}
		res.Width = toEm(img.width*scale, r.referenceSize)
		res.Height = toEm(img.height*scale, r.referenceSize)
		img.sizeEm(res.Width, res.Height)
		if res.Height <= 0 {
			removeAttr(img.node, "height")
		}
	}

	if res.SVG, err = img.render(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}
	return res, nil
}

// Document returns the full Typst document for src at the given page width.
func (r *Renderer) Document(src string, opts Options, pageWidth string) string {
	preamble := opts.Preamble
	if preamble == "" {
		preamble = r.preamble
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(preamble, "\n"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "#set page(height: auto, width: %s, margin: 0pt)\n", pageWidth)
	if opts.Setup != "" {
		b.WriteString(strings.TrimRight(opts.Setup, "\n"))
		b.WriteByte('\n')
	}

	switch {
	case opts.Block:
		b.WriteString(src)
	case opts.Display:
		b.WriteString("$ " + src + " $")
	default:
		b.WriteString("$" + src + "$")
	}
	return b.String()
}

func (r *Renderer) compile(ctx context.Context, doc string) (*svgImage, error) {
	data, err := r.compiler.Compile(ctx, doc)
	if err != nil {
		return nil, err
	}
	return parseSVG(data)
}

func (r *Renderer) evict() {
	if e, ok := r.compiler.(Evicter); ok {
		if n := e.Evict(r.cacheKeep); n > 0 {
			r.logger.Debug().Int("evicted", n).Msg("render cache trimmed")
		}
	}
}

// Prepare normalizes source for the compiler: placeholder escapes are
// undone for math, typographic quotes become straight quotes, and the
// result is trimmed.
func Prepare(source string, block bool) string {
	if !block {
		source = mdast.Unescape(source)
	}
	return strings.TrimSpace(mdast.StraightenQuotes(source))
}

// HasPercentWidth reports whether src sets a width as a percentage, either
// as a width property or as an image() argument.
func HasPercentWidth(src string) bool {
	return percentWidth.MatchString(src) || imagePercentWidth.MatchString(src)
}

// DiagramSetup rebinds commutative-diagram with the block's layout options.
// It returns "" when no option differs from the package defaults.
func DiagramSetup(o mdast.DiagramOptions) string {
	var args []string
	if o.NodePadding != "" {
		args = append(args, "node-padding: "+o.NodePadding)
	}
	if o.ArrClearance != "" {
		args = append(args, "arr-clearance: "+o.ArrClearance)
	}
	if o.Padding != "" {
		args = append(args, "padding: "+o.Padding)
	}
	if o.Debug {
		args = append(args, "debug: true")
	}
	if len(args) == 0 {
		return ""
	}
	return "#let commutative-diagram = commutative-diagram.with(" + strings.Join(args, ", ") + ")"
}
