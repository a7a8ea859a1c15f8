package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alnah/go-mdtypst"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Output path mirroring
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"next to source", "docs/intro.md", "", "", "docs/intro.html"},
		{"explicit html file", "docs/intro.md", "out/page.html", "", "out/page.html"},
		{"single file into dir", "docs/intro.md", "site", "", "site/intro.html"},
		{"mirrored tree", "docs/guide/groups.mdx", "site", "docs", "site/guide/groups.html"},
		{"markdown extension", "notes.markdown", "", "", "notes.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("resolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.input, tt.outputDir, tt.baseDir, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Markdown discovery
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.md"), "# Intro")
	writeFile(t, filepath.Join(dir, "guide", "groups.mdx"), "# Groups")
	writeFile(t, filepath.Join(dir, "guide", "image.png"), "png")
	writeFile(t, filepath.Join(dir, ".git", "README.md"), "hidden")

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles(dir, filepath.Join(dir, "site"))
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}

		var got []string
		for _, f := range files {
			rel, _ := filepath.Rel(dir, f.OutputPath)
			got = append(got, filepath.ToSlash(rel))
		}
		slices.Sort(got)
		want := []string{"site/guide/groups.html", "site/intro.html"}
		if !slices.Equal(got, want) {
			t.Errorf("outputs = %v, want %v", got, want)
		}
	})

	t.Run("single file", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles(filepath.Join(dir, "intro.md"), "")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].OutputPath != filepath.Join(dir, "intro.html") {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles(filepath.Join(dir, "guide", "image.png"), "")
		if !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error = %v, want ErrInvalidExtension", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles(filepath.Join(dir, "missing.md"), "")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestValidateWorkers - Worker bounds
// ---------------------------------------------------------------------------

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"auto", 0, false},
		{"one", 1, false},
		{"maximum", mdtypst.MaxWorkers, false},
		{"negative", -1, true},
		{"above maximum", mdtypst.MaxWorkers + 1, true},
	}

	for _, tt := range tests {
		err := validateWorkers(tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: validateWorkers(%d) = %v, wantErr %v", tt.name, tt.n, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("%s: error should wrap ErrInvalidWorkerCount", tt.name)
		}
	}
}
