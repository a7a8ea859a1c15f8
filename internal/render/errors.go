package render

import (
	"errors"
	"strings"
)

// Sentinel errors for rendering.
var (
	ErrCompile          = errors.New("typst compilation failed")
	ErrCompilerNotFound = errors.New("typst compiler not found")
	ErrTimeout          = errors.New("typst compilation timed out")
	ErrInvalidSVG       = errors.New("compiler output has no svg element")
	ErrEmptySource      = errors.New("typst source is empty")
)

// CompileError carries the compiler's diagnostics for a failed render.
type CompileError struct {
	Diagnostics []string
	Err         error
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(e.Diagnostics, "; ")
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Message returns the text shown in the inline error marker: the first
// diagnostic, or the wrapped error when there is none.
func (e *CompileError) Message() string {
	if len(e.Diagnostics) > 0 {
		return e.Diagnostics[0]
	}
	return e.Err.Error()
}

// Marker returns the visible text for a failed render.
func Marker(err error) string {
	msg := err.Error()
	var ce *CompileError
	if errors.As(err, &ce) {
		msg = ce.Message()
	}
	return "[Typst Error: " + msg + "]"
}

// parseDiagnostics extracts "error: ..." lines from compiler stderr. When
// none are found, the whole trimmed output is a single diagnostic.
func parseDiagnostics(stderr string) []string {
	var diags []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if msg, ok := strings.CutPrefix(line, "error:"); ok {
			diags = append(diags, strings.TrimSpace(msg))
		}
	}
	if len(diags) == 0 {
		if s := strings.TrimSpace(stderr); s != "" {
			diags = []string{s}
		}
	}
	return diags
}
