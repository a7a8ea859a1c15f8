package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/go-mdtypst"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrWriteHTML    = errors.New("failed to write HTML file")
)

// DocumentBuilder is the interface for the build service.
type DocumentBuilder interface {
	Build(ctx context.Context, input mdtypst.Input) (*mdtypst.Result, error)
}

// Compile-time interface implementation check.
var _ DocumentBuilder = (*mdtypst.Builder)(nil)

// BuildResult holds the outcome of a single document build.
type BuildResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
	Outputs    map[string]string
	// Failures are the renders that became error markers in the page.
	Failures []error
}

// buildBatch builds files concurrently with the given number of workers.
// The Builder is shared: its compiler cache serves every document.
func buildBatch(ctx context.Context, b DocumentBuilder, files []FileToBuild, workers int, fragment bool) []BuildResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(max(workers, 1), len(files))

	results := make([]BuildResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = BuildResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = buildFile(ctx, b, files[idx], fragment)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// buildFile processes a single file and returns the result.
func buildFile(ctx context.Context, b DocumentBuilder, f FileToBuild, fragment bool) BuildResult {
	start := time.Now()
	result := BuildResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadMarkdown, err)
		result.Duration = time.Since(start)
		return result
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		result.Err = fmt.Errorf("%w: creating output directory: %v", ErrWriteHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	res, err := b.Build(ctx, mdtypst.Input{
		Markdown:  string(content),
		Path:      f.InputPath,
		OutputDir: outDir,
		Fragment:  fragment,
	})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Outputs = res.Outputs
	result.Failures = res.Failures

	// #nosec G306 -- pages are meant to be readable
	if err := os.WriteFile(f.OutputPath, res.HTML, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary tallies a batch.
type ResultSummary struct {
	Succeeded      int
	Failed         int
	RenderFailures int
	// FirstErr is the error of the first failed document, in input order.
	FirstErr error
	// CompilerErr is the first render failure caused by a missing or timed
	// out typst rather than by document source.
	CompilerErr error
}

// countResults tallies succeeded and failed builds.
func countResults(results []BuildResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			if summary.FirstErr == nil {
				summary.FirstErr = r.Err
			}
			continue
		}
		summary.Succeeded++
		summary.RenderFailures += len(r.Failures)
		for _, err := range r.Failures {
			if summary.CompilerErr == nil && isCompilerError(err) {
				summary.CompilerErr = err
			}
		}
	}
	return summary
}

func isCompilerError(err error) bool {
	return errors.Is(err, mdtypst.ErrCompilerNotFound) || errors.Is(err, mdtypst.ErrRenderTimeout)
}

// printResults outputs build results and returns the summary.
func printResults(results []BuildResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if len(r.Failures) > 0 {
			fmt.Fprintf(env.Stderr, "WARN %s: %d render error(s)\n", r.InputPath, len(r.Failures))
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}
