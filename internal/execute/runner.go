package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-mdtypst/internal/fileutil"
	"github.com/alnah/go-mdtypst/internal/process"
)

// DefaultTimeout bounds a single interpreter run.
const DefaultTimeout = 30 * time.Second

// Executor runs source through an interpreter and returns its output.
// A non-zero exit returns a *RunError carrying the diagnostics.
// displayName replaces the temp file path in the output.
type Executor interface {
	Execute(ctx context.Context, interp Interpreter, source, displayName string) (string, error)
}

// ProcessExecutor runs interpreters as child processes, one temp file per
// run, each under a timeout that kills the whole process group.
type ProcessExecutor struct {
	Timeout time.Duration

	lookPath func(string) (string, error)
}

// NewProcessExecutor returns a ProcessExecutor. A non-positive timeout
// selects DefaultTimeout.
func NewProcessExecutor(timeout time.Duration) *ProcessExecutor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProcessExecutor{Timeout: timeout, lookPath: exec.LookPath}
}

// Execute implements Executor.
func (e *ProcessExecutor) Execute(ctx context.Context, interp Interpreter, source, displayName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lookPath := e.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(interp.Command)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInterpreterNotFound, interp.Command)
	}

	ext := interp.Extension
	if ext == "" {
		ext = "txt"
	}
	path, cleanup, err := fileutil.WriteTempFile(source, ext)
	if err != nil {
		return "", err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := append(append([]string{}, interp.Args...), path)
	cmd := exec.CommandContext(ctx, bin, args...)
	process.Configure(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := selectOutput(interp.PreferStderr, stdout.String(), stderr.String())
	if displayName != "" {
		out = strings.ReplaceAll(out, path, displayName)
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, fmt.Errorf("%w after %s", ErrTimeout, e.Timeout)
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return out, fmt.Errorf("running %s: %w", interp.Command, runErr)
		}
		// Failed run: keep what the block printed before failing, followed
		// by the diagnostics.
		out = joinOutput(stdout.String(), stderr.String())
		if displayName != "" {
			out = strings.ReplaceAll(out, path, displayName)
		}
		return "", &RunError{ExitCode: exitErr.ExitCode(), Output: interp.ErrorPrefix + out}
	}
	return out, nil
}

// selectOutput returns the preferred stream, or the other one when the
// preferred stream is blank.
func selectOutput(preferStderr bool, stdout, stderr string) string {
	first, second := stdout, stderr
	if preferStderr {
		first, second = stderr, stdout
	}
	if strings.TrimSpace(first) != "" {
		return first
	}
	return second
}

// joinOutput returns stdout followed by stderr, dropping a blank stream.
func joinOutput(stdout, stderr string) string {
	switch {
	case strings.TrimSpace(stdout) == "":
		return stderr
	case strings.TrimSpace(stderr) == "":
		return stdout
	}
	return strings.TrimRight(stdout, "\n") + "\n" + stderr
}
