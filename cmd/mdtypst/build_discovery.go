package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdtypst"
	"github.com/alnah/go-mdtypst/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have a .md, .mdx or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// htmlExtension is the extension of every written page.
const htmlExtension = ".html"

// FileToBuild represents a single file to process.
type FileToBuild struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all markdown files to build. Hidden directories,
// such as .git, are skipped.
func discoverFiles(inputPath, outputDir string) ([]FileToBuild, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToBuild{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToBuild
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if path != inputPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdownPath(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToBuild{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the HTML output path for a markdown file.
// Under a directory input, the tree below it is mirrored into outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+htmlExtension)
	}

	if strings.HasSuffix(outputDir, htmlExtension) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, base+htmlExtension)
		}
	}

	return filepath.Join(outputDir, base+htmlExtension)
}

// isMarkdownPath reports whether path has a Markdown extension.
func isMarkdownPath(path string) bool {
	return fileutil.IsMarkdown(path)
}

// validateMarkdownExtension checks that the file has a Markdown extension.
func validateMarkdownExtension(path string) error {
	if !isMarkdownPath(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdtypst.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdtypst.MaxWorkers)
	}
	return nil
}
