package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/alnah/go-mdtypst/internal/fileutil"
	"github.com/alnah/go-mdtypst/internal/process"
)

// Defaults for the typst command line compiler.
const (
	DefaultBinary  = "typst"
	DefaultTimeout = 30 * time.Second
)

// TypstCLI compiles documents with the typst command line tool. Each call
// writes the source to a temp file and runs "typst compile --format svg"
// under a timeout; on expiry the whole process group is killed.
type TypstCLI struct {
	Binary  string
	Timeout time.Duration
	// Root is passed as --root when set, so documents can import local files.
	Root string

	lookPath func(string) (string, error)
}

// NewTypstCLI returns a TypstCLI. Empty binary and non-positive timeout
// select the defaults.
func NewTypstCLI(binary string, timeout time.Duration) *TypstCLI {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TypstCLI{Binary: binary, Timeout: timeout, lookPath: exec.LookPath}
}

// Compile implements Compiler.
func (c *TypstCLI) Compile(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(c.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompilerNotFound, c.Binary)
	}

	in, cleanup, err := fileutil.WriteTempFile(source, "typ")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	out := fileutil.SiblingPath(in, "svg")
	defer func() { _ = os.Remove(out) }()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := []string{"compile", "--format", "svg"}
	if c.Root != "" {
		args = append(args, "--root", c.Root)
	}
	args = append(args, in, out)

	cmd := exec.CommandContext(ctx, bin, args...)
	process.Configure(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &CompileError{Diagnostics: parseDiagnostics(stderr.String()), Err: ErrCompile}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrCompile, err)
	}
	return data, nil
}
