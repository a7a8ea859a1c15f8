// Package execute runs the code placeholders of one document through
// external interpreters and collects their output.
//
// Blocks sharing a session are concatenated and run cumulatively, so each
// block sees the definitions of the ones before it. Interpreters in
// statement mode are run once per statement prefix and the output of each
// statement is isolated by diffing consecutive runs.
package execute

import (
	"sort"
	"strings"
)

// Interpreter describes how to invoke one language's batch interpreter.
// The source file path is appended to Args.
type Interpreter struct {
	Name      string
	Command   string
	Args      []string
	Extension string
	// PreferStderr selects stderr as the primary output stream.
	PreferStderr bool
	// Statements enables per-statement execution.
	Statements bool
	// Translate rewrites LaTeX symbol names to Unicode before running.
	Translate bool
	// ErrorPrefix is prepended to the output of a failed run.
	ErrorPrefix string
}

// Registry maps language tags to interpreters. Lookups are
// case-insensitive.
type Registry struct {
	byLang map[string]Interpreter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLang: make(map[string]Interpreter)}
}

// DefaultRegistry returns a registry with python and lean.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	python := Interpreter{
		Name:        "python",
		Command:     "python3",
		Extension:   "py",
		ErrorPrefix: "Error: ",
	}
	r.Register(python, "python", "py", "python3")

	lean := Interpreter{
		Name:         "lean",
		Command:      "lean",
		Extension:    "lean",
		PreferStderr: true,
		Statements:   true,
		Translate:    true,
	}
	r.Register(lean, "lean", "lean4")

	return r
}

// Register adds interp under each of the language tags.
func (r *Registry) Register(interp Interpreter, langs ...string) {
	for _, l := range langs {
		r.byLang[strings.ToLower(l)] = interp
	}
}

// Lookup returns the interpreter for lang.
func (r *Registry) Lookup(lang string) (Interpreter, bool) {
	i, ok := r.byLang[strings.ToLower(lang)]
	return i, ok
}

// Languages returns the registered tags in sorted order.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.byLang))
	for l := range r.byLang {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
