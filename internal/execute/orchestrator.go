package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdtypst/internal/mdast"
	"github.com/alnah/go-mdtypst/internal/symbols"
)

// SessionSeparator joins the fragments of a session.
const SessionSeparator = "\n\n"

// Block is one code placeholder to execute. Run fills Output for every
// block it executes; blocks with Eval false are left untouched.
type Block struct {
	Filename string
	ID       string
	Session  string
	Language string
	Code     string
	Eval     bool

	Output *mdast.Output
}

// Key returns the output map key of the block.
func (b *Block) Key() string {
	return mdast.OutputKey(b.Filename, b.ID)
}

// sessionKey groups blocks that share interpreter state.
func (b *Block) sessionKey() string {
	return b.Filename + "::" + b.Session + "::" + strings.ToLower(b.Language)
}

// Orchestrator executes the code blocks of a document. It holds no
// per-document state and may be shared across concurrent runs.
type Orchestrator struct {
	executor    Executor
	registry    *Registry
	latex       *symbols.Translator
	logger      zerolog.Logger
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry replaces the default interpreter registry.
func WithRegistry(r *Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithConcurrency bounds how many lanes run at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// New returns an Orchestrator that runs code through executor.
func New(executor Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		executor:    executor,
		registry:    DefaultRegistry(),
		latex:       symbols.LaTeX(),
		logger:      zerolog.Nop(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// session is the interpreter state of one lane.
type session struct {
	fragments []string
	last      string

	// units are the statements seen so far; outputs[k] is the output of
	// running the first k of them, with outputs[0] the empty run.
	units   []string
	outputs []string
}

// Run executes blocks and returns the output map keyed by Block.Key.
// Blocks of one session run in order on one lane; every other block runs
// on a lane of its own, and lanes run concurrently. Execution failures are
// recorded as output; only cancellation of ctx returns an error.
func (o *Orchestrator) Run(ctx context.Context, blocks []*Block) (map[string]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, lane := range lanes(blocks) {
		g.Go(func() error {
			return o.runLane(gctx, lane)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outputs := make(map[string]string, len(blocks))
	for _, b := range blocks {
		if b.Output == nil {
			continue
		}
		if _, dup := outputs[b.Key()]; dup {
			o.logger.Warn().Str("key", b.Key()).Msg("duplicate block id, later output wins")
		}
		outputs[b.Key()] = b.Output.Text
	}
	return outputs, nil
}

// lanes groups blocks by session in first-appearance order.
func lanes(blocks []*Block) [][]*Block {
	var out [][]*Block
	index := make(map[string]int)

	for _, b := range blocks {
		if b.Session == "" {
			out = append(out, []*Block{b})
			continue
		}
		key := b.sessionKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], b)
	}
	return out
}

func (o *Orchestrator) runLane(ctx context.Context, lane []*Block) error {
	s := &session{}
	for _, b := range lane {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !b.Eval {
			o.logger.Debug().Str("key", b.Key()).Msg("eval disabled, skipping")
			continue
		}
		b.Output = o.runBlock(ctx, s, b)
	}
	return ctx.Err()
}

func (o *Orchestrator) runBlock(ctx context.Context, s *session, b *Block) *mdast.Output {
	log := o.logger.With().Str("key", b.Key()).Str("language", b.Language).Logger()

	interp, ok := o.registry.Lookup(b.Language)
	if !ok {
		log.Warn().Msg("unsupported language")
		return &mdast.Output{Text: "Unsupported language: " + b.Language}
	}

	code := b.Code
	if interp.Translate {
		code = o.latex.Translate(code)
	}
	display := b.Filename + "." + interp.Extension

	if interp.Statements {
		return o.runStatements(ctx, s, interp, code, display, log)
	}

	s.fragments = append(s.fragments, code)
	source := strings.Join(s.fragments, SessionSeparator)

	out, err := o.executor.Execute(ctx, interp, source, display)
	if err != nil {
		// The failing fragment stays in the session, so later blocks fail
		// too. Their output is never diffed against the failure, and each
		// one records the full error.
		log.Warn().Err(err).Msg("execution failed")
		return &mdast.Output{Text: strings.TrimSpace(outputText(err))}
	}

	text := strings.TrimSpace(out)
	if b.Session != "" {
		text = Diff(s.last, out)
	}
	s.last = out
	log.Debug().Int("fragments", len(s.fragments)).Msg("block executed")
	return &mdast.Output{Text: text}
}

// runStatements runs each new statement prefix once and attributes to
// every statement the lines its prefix added to the previous run.
func (o *Orchestrator) runStatements(ctx context.Context, s *session, interp Interpreter, code, display string, log zerolog.Logger) *mdast.Output {
	start := len(s.units)
	s.units = append(s.units, SplitStatements(code)...)

	parts := make([]mdast.OutputPart, 0, len(s.units)-start)
	for j := start + 1; j <= len(s.units); j++ {
		out, err := o.prefixOutput(ctx, s, interp, j, display)
		if err != nil {
			log.Warn().Err(err).Int("statement", j).Msg("execution failed")
			parts = append(parts, mdast.OutputPart{Statement: s.units[j-1], Output: strings.TrimSpace(outputText(err))})
			break
		}
		parts = append(parts, mdast.OutputPart{
			Statement: s.units[j-1],
			Output:    Diff(s.outputs[j-1], out),
		})
	}

	log.Debug().Int("statements", len(parts)).Msg("block executed")
	return &mdast.Output{Text: encodeParts(parts), Parts: parts}
}

func (o *Orchestrator) prefixOutput(ctx context.Context, s *session, interp Interpreter, j int, display string) (string, error) {
	if s.outputs == nil {
		s.outputs = []string{""}
	}
	for len(s.outputs) <= j {
		k := len(s.outputs)
		out, err := o.executor.Execute(ctx, interp, strings.Join(s.units[:k], SessionSeparator), display)
		if err != nil {
			return "", err
		}
		s.outputs = append(s.outputs, out)
	}
	return s.outputs[j], nil
}

type statementOutput struct {
	Statement string `json:"statement"`
	Output    string `json:"output"`
}

// encodeParts renders parts as the JSON array stored in the output map.
func encodeParts(parts []mdast.OutputPart) string {
	items := make([]statementOutput, len(parts))
	for i, p := range parts {
		items[i] = statementOutput{Statement: p.Statement, Output: p.Output}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}

// DecodeParts parses an output map value written for a statement-mode
// block. It reports false for plain text values.
func DecodeParts(value string) ([]mdast.OutputPart, bool) {
	if !strings.HasPrefix(value, "[") {
		return nil, false
	}
	var items []statementOutput
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, false
	}
	parts := make([]mdast.OutputPart, len(items))
	for i, it := range items {
		parts[i] = mdast.OutputPart{Statement: it.Statement, Output: it.Output}
	}
	return parts, true
}
