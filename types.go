package mdtypst

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdtypst/internal/execute"
	"github.com/alnah/go-mdtypst/internal/render"
)

// Input contains build parameters for one document.
type Input struct {
	Markdown string // Markdown content (required)
	// Path is the source file path. Its base name prefixes automatic code
	// block ids and its directory anchors relative links. Optional.
	Path string
	// OutputDir is where the page will be written. Relative links are
	// rebased onto it when it differs from the source directory. Optional.
	OutputDir string
	// Fragment skips the page template and returns the body HTML only.
	Fragment bool
}

// Result is the outcome of a successful build.
type Result struct {
	HTML []byte
	// Name is the document's id prefix, the source base name without its
	// Markdown extension.
	Name  string
	Title string
	// FrontMatter is the decoded metadata block, empty when there is none.
	FrontMatter map[string]any
	// Outputs maps "<filename>::<id>" to the captured output of each
	// executed code block.
	Outputs map[string]string
	// Failures lists the renders that produced an error marker instead of
	// an SVG. The build itself still succeeds.
	Failures []error
}

// Interpreter describes a batch interpreter for one language.
type Interpreter struct {
	Command   string
	Args      []string // the source file path is appended
	Extension string   // temp file extension, without the dot
	// PreferStderr selects stderr as the primary output stream.
	PreferStderr bool
	// Statements runs every statement prefix and attributes output per
	// statement.
	Statements bool
	// Translate rewrites LaTeX symbol names to Unicode before running.
	Translate bool
	// ErrorPrefix is prepended to the output of a failed run.
	ErrorPrefix string
}

// Option configures a Builder.
type Option func(*Builder)

// builderConfig holds internal configuration for Builder.
type builderConfig struct {
	logger            zerolog.Logger
	typstBinary       string
	typstRoot         string
	renderTimeout     time.Duration
	execTimeout       time.Duration
	preamble          string
	referenceSize     float64
	largePageWidth    string
	fallbackPageWidth string
	cacheSize         int
	cacheKeep         int
	concurrency       int
	interpreters      []registration
	headingUnicode    bool
	inlineCodeUnicode bool
	defaultLanguage   string
	highlightStyle    string
	style             string
	template          string
	assetPath         string
	date              string
	now               func() time.Time
}

type registration struct {
	interp Interpreter
	langs  []string
}

// WithLogger sets the logger for build diagnostics. The default discards
// everything.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) {
		b.cfg.logger = l
	}
}

// WithTypstBinary sets the typst executable name or path.
func WithTypstBinary(path string) Option {
	return func(b *Builder) {
		b.cfg.typstBinary = path
	}
}

// WithTypstRoot sets the project root typst resolves local imports against.
func WithTypstRoot(dir string) Option {
	return func(b *Builder) {
		b.cfg.typstRoot = dir
	}
}

// WithRenderTimeout sets the timeout of one typst compilation.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdtypst: WithRenderTimeout duration must be positive")
	}
	return func(b *Builder) {
		b.cfg.renderTimeout = d
	}
}

// WithExecTimeout sets the timeout of one interpreter run.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithExecTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdtypst: WithExecTimeout duration must be positive")
	}
	return func(b *Builder) {
		b.cfg.execTimeout = d
	}
}

// WithPreamble replaces the import line of every synthesized Typst document.
func WithPreamble(p string) Option {
	return func(b *Builder) {
		b.cfg.preamble = p
	}
}

// WithReferenceSize sets the point size that one em stands for.
func WithReferenceSize(size float64) Option {
	return func(b *Builder) {
		b.cfg.referenceSize = size
	}
}

// WithPageWidths sets the page width used for percent-width content and
// the width of the second render when the first has no width.
func WithPageWidths(large, fallback string) Option {
	return func(b *Builder) {
		b.cfg.largePageWidth = large
		b.cfg.fallbackPageWidth = fallback
	}
}

// WithCache sets the compiler cache capacity and how many entries survive
// the trim after each render. Non-positive values keep the defaults.
func WithCache(size, keep int) Option {
	return func(b *Builder) {
		b.cfg.cacheSize = size
		b.cfg.cacheKeep = keep
	}
}

// WithConcurrency caps the renders and interpreter runs in flight per
// document.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		b.cfg.concurrency = n
	}
}

// WithInterpreter registers interp for the given language tags, replacing
// any default for those tags.
func WithInterpreter(interp Interpreter, langs ...string) Option {
	return func(b *Builder) {
		b.cfg.interpreters = append(b.cfg.interpreters, registration{interp: interp, langs: langs})
	}
}

// WithHeadingUnicode toggles Unicode translation of math in headings.
// Enabled by default.
func WithHeadingUnicode(enabled bool) Option {
	return func(b *Builder) {
		b.cfg.headingUnicode = enabled
	}
}

// WithInlineCodeUnicode toggles LaTeX symbol translation in inline code.
func WithInlineCodeUnicode(enabled bool) Option {
	return func(b *Builder) {
		b.cfg.inlineCodeUnicode = enabled
	}
}

// WithDefaultLanguage sets the language of executable blocks naming none.
func WithDefaultLanguage(lang string) Option {
	return func(b *Builder) {
		b.cfg.defaultLanguage = lang
	}
}

// WithHighlightStyle sets the chroma style for code highlighting.
func WithHighlightStyle(name string) Option {
	return func(b *Builder) {
		b.cfg.highlightStyle = name
	}
}

// WithStyle selects the page stylesheet by name.
func WithStyle(name string) Option {
	return func(b *Builder) {
		b.cfg.style = name
	}
}

// WithTemplate selects the page template by name.
func WithTemplate(name string) Option {
	return func(b *Builder) {
		b.cfg.template = name
	}
}

// WithAssetPath sets a directory whose styles/ and templates/ override the
// built-in assets.
func WithAssetPath(path string) Option {
	return func(b *Builder) {
		b.cfg.assetPath = path
	}
}

// WithAssetLoader sets a custom asset loader. It takes precedence over
// WithAssetPath.
func WithAssetLoader(l AssetLoader) Option {
	return func(b *Builder) {
		b.publicAssetLoader = l
	}
}

// WithDate sets the date shown on pages whose front matter has none.
// "auto" and "auto:FORMAT" resolve to the current date when the Builder is
// created, so every page of a batch carries the same date. A front matter
// date is shown in the same format.
func WithDate(date string) Option {
	return func(b *Builder) {
		b.cfg.date = date
	}
}

// withClock replaces time.Now, for tests.
func withClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.cfg.now = now
	}
}

// withCompiler replaces the typst CLI, for tests.
func withCompiler(c render.Compiler) Option {
	return func(b *Builder) {
		b.compiler = c
	}
}

// withExecutor replaces the process executor, for tests.
func withExecutor(e execute.Executor) Option {
	return func(b *Builder) {
		b.executor = e
	}
}

func (i Interpreter) toExecute(name string) execute.Interpreter {
	return execute.Interpreter{
		Name:         name,
		Command:      i.Command,
		Args:         i.Args,
		Extension:    i.Extension,
		PreferStderr: i.PreferStderr,
		Statements:   i.Statements,
		Translate:    i.Translate,
		ErrorPrefix:  i.ErrorPrefix,
	}
}
