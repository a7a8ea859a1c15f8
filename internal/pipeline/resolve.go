package pipeline

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark/ast"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdtypst/internal/execute"
	"github.com/alnah/go-mdtypst/internal/mdast"
	"github.com/alnah/go-mdtypst/internal/render"
)

// MathRenderer turns Typst source into a sized SVG.
type MathRenderer interface {
	Render(ctx context.Context, source string, opts render.Options) (*render.Result, error)
}

// CodeRunner executes a document's code blocks and returns the output map.
type CodeRunner interface {
	Run(ctx context.Context, blocks []*execute.Block) (map[string]string, error)
}

// ResolverConfig configures a Resolver. Zero values mean no logging and
// GOMAXPROCS concurrent jobs.
type ResolverConfig struct {
	Logger      zerolog.Logger
	Concurrency int
}

// Resolver fills in the placeholders of a parsed Document: SVG for math,
// Typst blocks and diagrams, captured output for code blocks.
type Resolver struct {
	math        MathRenderer
	code        CodeRunner
	logger      zerolog.Logger
	concurrency int
}

// NewResolver returns a Resolver. Either backend may be nil, in which case
// the matching placeholders are left unresolved.
func NewResolver(math MathRenderer, code CodeRunner, cfg ResolverConfig) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Resolver{
		math:        math,
		code:        code,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// codeSlot pairs an execution block with the node receiving its output.
type codeSlot struct {
	block *execute.Block
	set   func(*mdast.Output)
}

// Resolve launches every render and the code run concurrently and waits for
// all of them. Each job writes only its own node. Render and execution
// failures are recorded on the nodes; only cancellation of ctx is returned.
// The returned map holds the document's code outputs.
func (r *Resolver) Resolve(ctx context.Context, doc *Document) (map[string]string, error) {
	var (
		renders []func(context.Context)
		slots   []codeSlot
	)

	_ = ast.Walk(doc.Root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *mdast.MathSpan:
			renders = append(renders, func(ctx context.Context) {
				n.Rendered = r.render(ctx, "math", n.Content, render.Options{Display: n.Display})
			})
		case *mdast.TypstBlock:
			if n.Eval {
				renders = append(renders, func(ctx context.Context) {
					n.Rendered = r.render(ctx, "typst", n.Code, render.Options{Block: true})
				})
			}
			return ast.WalkSkipChildren, nil
		case *mdast.Diagram:
			renders = append(renders, func(ctx context.Context) {
				n.Rendered = r.render(ctx, "diagram", n.Code, render.Options{
					Block: true,
					Setup: render.DiagramSetup(n.Options),
					Scale: n.Options.Scale,
				})
			})
			return ast.WalkSkipChildren, nil
		case *mdast.ExecutableCode:
			slots = append(slots, codeSlot{
				block: &execute.Block{
					Filename: n.Filename,
					ID:       n.ID,
					Session:  n.Session,
					Language: n.Language,
					Code:     n.Code,
					Eval:     n.Eval,
				},
				set: func(o *mdast.Output) { n.Output = o },
			})
			return ast.WalkSkipChildren, nil
		case *mdast.CodeWithOutput:
			slots = append(slots, codeSlot{
				block: &execute.Block{
					Filename: n.Filename,
					ID:       n.ID,
					Session:  n.Session,
					Language: n.Language,
					Code:     n.Code,
					Eval:     n.Eval,
				},
				set: func(o *mdast.Output) { n.Output = o },
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	log := r.logger.With().Str("document", doc.Name).Logger()
	log.Debug().
		Int("renders", len(renders)).
		Int("codeBlocks", len(slots)).
		Msg("resolving placeholders")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var outputs map[string]string
	if r.code != nil && len(slots) > 0 {
		g.Go(func() error {
			blocks := make([]*execute.Block, len(slots))
			for i, s := range slots {
				blocks[i] = s.block
			}
			out, err := r.code.Run(gctx, blocks)
			if err != nil {
				return err
			}
			for _, s := range slots {
				if s.block.Output != nil {
					s.set(s.block.Output)
				}
			}
			outputs = out
			return nil
		})
	}

	if r.math != nil {
		for _, job := range renders {
			g.Go(func() error {
				job(gctx)
				return gctx.Err()
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if outputs == nil {
		outputs = map[string]string{}
	}
	return outputs, nil
}

func (r *Resolver) render(ctx context.Context, kind, source string, opts render.Options) *mdast.Rendered {
	res, err := r.math.Render(ctx, source, opts)
	if err != nil {
		r.logger.Warn().Err(err).Str("kind", kind).Msg("render failed")
		return &mdast.Rendered{Err: err}
	}
	return &mdast.Rendered{SVG: res.SVG}
}
