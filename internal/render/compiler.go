// Package render turns Typst source into sized SVG fragments.
//
// A Renderer wraps each snippet in a minimal page document, hands it to a
// Compiler and post-processes the SVG: intrinsic size is converted to em
// units, percentage widths produce a fluid graphic, and a graphic without a
// usable width is rendered a second time against a fixed page width.
package render

import "context"

// Compiler compiles a complete Typst document to SVG.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, source string) ([]byte, error)

// Compile implements Compiler.
func (f CompilerFunc) Compile(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// Evicter is implemented by compilers that hold a trimmable cache.
type Evicter interface {
	Evict(keep int) int
}
