package mdtypst

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark/ast"

	"github.com/alnah/go-mdtypst/internal/assets"
	"github.com/alnah/go-mdtypst/internal/dateutil"
	"github.com/alnah/go-mdtypst/internal/execute"
	"github.com/alnah/go-mdtypst/internal/logging"
	"github.com/alnah/go-mdtypst/internal/mdast"
	"github.com/alnah/go-mdtypst/internal/pipeline"
	"github.com/alnah/go-mdtypst/internal/render"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MathRenderer = (*render.Renderer)(nil)
	_ pipeline.CodeRunner   = (*execute.Orchestrator)(nil)
	_ render.Compiler       = (*render.Cache)(nil)
	_ render.Compiler       = (*render.TypstCLI)(nil)
	_ execute.Executor      = (*execute.ProcessExecutor)(nil)
)

// Builder turns Markdown documents into HTML with rendered math, diagrams
// and executed code. Create with NewBuilder and share it: Build is safe for
// concurrent use, and all builds share one bounded compiler cache.
type Builder struct {
	cfg               builderConfig
	assetLoader       assets.AssetLoader
	publicAssetLoader AssetLoader
	compiler          render.Compiler
	executor          execute.Executor
	registry          *execute.Registry
	engine            *pipeline.Engine
	resolver          *pipeline.Resolver
	page              *pipeline.Page
}

// publicToInternalAdapter wraps public AssetLoader to internal assets.AssetLoader.
type publicToInternalAdapter struct {
	pub AssetLoader
}

func (a *publicToInternalAdapter) LoadStyle(name string) (string, error) {
	return a.pub.LoadStyle(name)
}

func (a *publicToInternalAdapter) LoadTemplate(name string) (string, error) {
	return a.pub.LoadTemplate(name)
}

// NewBuilder creates a Builder with default configuration.
// Use options to customize behavior (e.g., WithTypstBinary, WithInterpreter).
// Returns error if the cache, the assets or the page template fail to load.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		cfg: builderConfig{
			logger:         zerolog.Nop(),
			renderTimeout:  render.DefaultTimeout,
			execTimeout:    execute.DefaultTimeout,
			cacheSize:      render.DefaultCacheSize,
			cacheKeep:      render.DefaultCacheKeep,
			headingUnicode: true,
			now:            time.Now,
		},
		assetLoader: assets.NewEmbeddedLoader(),
	}

	for _, opt := range opts {
		opt(b)
	}
	if b.cfg.cacheSize <= 0 {
		b.cfg.cacheSize = render.DefaultCacheSize
	}
	if b.cfg.cacheKeep <= 0 {
		b.cfg.cacheKeep = render.DefaultCacheKeep
	}

	if b.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(b.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		b.assetLoader = resolver
	}
	if b.publicAssetLoader != nil {
		b.assetLoader = &publicToInternalAdapter{pub: b.publicAssetLoader}
	}

	log := b.cfg.logger

	if b.compiler == nil {
		cli := render.NewTypstCLI(b.cfg.typstBinary, b.cfg.renderTimeout)
		cli.Root = b.cfg.typstRoot
		b.compiler = cli
	}
	cache, err := render.NewCache(b.compiler, b.cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	renderer := render.New(cache,
		render.WithLogger(logging.Component(log, "render")),
		render.WithPreamble(b.cfg.preamble),
		render.WithReferenceSize(b.cfg.referenceSize),
		render.WithLargePageWidth(b.cfg.largePageWidth),
		render.WithFallbackPageWidth(b.cfg.fallbackPageWidth),
		render.WithCacheKeep(b.cfg.cacheKeep),
	)

	if b.executor == nil {
		b.executor = execute.NewProcessExecutor(b.cfg.execTimeout)
	}
	b.registry = execute.DefaultRegistry()
	for _, reg := range b.cfg.interpreters {
		if len(reg.langs) == 0 {
			continue
		}
		b.registry.Register(reg.interp.toExecute(reg.langs[0]), reg.langs...)
	}
	orchestrator := execute.New(b.executor,
		execute.WithRegistry(b.registry),
		execute.WithLogger(logging.Component(log, "execute")),
		execute.WithConcurrency(b.cfg.concurrency),
	)

	b.engine = pipeline.NewEngine(
		pipeline.WithLogger(logging.Component(log, "parse")),
		pipeline.WithHeadingUnicode(b.cfg.headingUnicode),
		pipeline.WithInlineCodeUnicode(b.cfg.inlineCodeUnicode),
		pipeline.WithDefaultLanguage(b.cfg.defaultLanguage),
		pipeline.WithHighlightStyle(b.cfg.highlightStyle),
	)
	b.resolver = pipeline.NewResolver(renderer, orchestrator, pipeline.ResolverConfig{
		Logger:      logging.Component(log, "resolve"),
		Concurrency: b.cfg.concurrency,
	})

	dates, err := dateutil.ParseSetting(b.cfg.date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	highlightCSS, err := b.engine.HighlightCSS()
	if err != nil {
		return nil, err
	}
	b.page, err = pipeline.NewPage(b.assetLoader, b.cfg.style, b.cfg.template, highlightCSS)
	if err != nil {
		return nil, convertAssetError(err)
	}
	b.page.WithDate(dates, b.cfg.now())

	return b, nil
}

// Languages returns the language tags with a registered interpreter.
func (b *Builder) Languages() []string {
	return b.registry.Languages()
}

// Build runs the full pipeline for one document.
// Render and execution failures do not fail the build: they become inline
// markers and captured output. Only invalid input, cancellation of ctx and
// internal failures return an error.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (b *Builder) Build(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}

	log := b.cfg.logger.With().Str("path", input.Path).Logger()

	doc, err := b.engine.Parse(ctx, []byte(input.Markdown), input.Path)
	if err != nil {
		return nil, fmt.Errorf("parsing markdown: %w", err)
	}

	outputs, err := b.resolver.Resolve(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("resolving placeholders: %w", err)
	}

	htmlContent, err := b.engine.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	var sourceDir string
	if input.Path != "" {
		sourceDir = filepath.Dir(input.Path)
	}
	htmlContent, err = pipeline.RewriteLinks(htmlContent, sourceDir, input.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("rewriting links: %w", err)
	}

	if !input.Fragment {
		htmlContent, err = b.page.Wrap(doc, htmlContent)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{
		HTML:        []byte(htmlContent),
		Name:        doc.Name,
		Title:       doc.Title,
		FrontMatter: map[string]any(doc.FrontMatter),
		Outputs:     outputs,
		Failures:    renderFailures(doc.Root),
	}
	log.Debug().
		Int("outputs", len(res.Outputs)).
		Int("failures", len(res.Failures)).
		Msg("document built")
	return res, nil
}

// renderFailures collects the errors recorded on resolved placeholders.
func renderFailures(root ast.Node) []error {
	var errs []error
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var r *mdast.Rendered
		switch n := n.(type) {
		case *mdast.MathSpan:
			r = n.Rendered
		case *mdast.TypstBlock:
			r = n.Rendered
		case *mdast.Diagram:
			r = n.Rendered
		}
		if r != nil && r.Err != nil {
			errs = append(errs, r.Err)
		}
		return ast.WalkContinue, nil
	})
	return errs
}

// HasCompilerFailure reports whether any failure comes from a missing or
// timed out compiler rather than from the document's own source.
func (r *Result) HasCompilerFailure() bool {
	for _, err := range r.Failures {
		if errors.Is(err, ErrCompilerNotFound) || errors.Is(err, ErrRenderTimeout) {
			return true
		}
	}
	return false
}
