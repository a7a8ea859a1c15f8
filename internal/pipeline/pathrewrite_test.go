package pipeline

// Notes:
// - Tests RewriteLinks through its public API, plus the two path helpers
// - Error branches in parseFragment/renderFragment are not covered: the html
//   package rarely fails on valid input

import (
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRewriteLinks - Markdown links
// ---------------------------------------------------------------------------

func TestRewriteLinks_MarkdownLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		html         string
		wantContains string
	}{
		{
			name:         "dot slash markdown link",
			html:         `<a href="./other.md">Other</a>`,
			wantContains: `href="./other.html"`,
		},
		{
			name:         "mdx link keeps fragment",
			html:         `<a href="guide.mdx#setup">Setup</a>`,
			wantContains: `href="guide.html#setup"`,
		},
		{
			name:         "markdown extension keeps query",
			html:         `<a href="notes.markdown?v=2">Notes</a>`,
			wantContains: `href="notes.html?v=2"`,
		},
		{
			name:         "nested directory",
			html:         `<a href="chapter/intro.md">Intro</a>`,
			wantContains: `href="chapter/intro.html"`,
		},
		{
			name:         "other files unchanged",
			html:         `<a href="./slides.pdf">Slides</a>`,
			wantContains: `href="./slides.pdf"`,
		},
		{
			name:         "external markdown unchanged",
			html:         `<a href="https://example.com/readme.md">Readme</a>`,
			wantContains: `href="https://example.com/readme.md"`,
		},
		{
			name:         "site absolute unchanged",
			html:         `<a href="/docs/page.md">Page</a>`,
			wantContains: `href="/docs/page.md"`,
		},
		{
			name:         "anchor unchanged",
			html:         `<a href="#section">Section</a>`,
			wantContains: `href="#section"`,
		},
		{
			name:         "mailto unchanged",
			html:         `<a href="mailto:team@example.com">Mail</a>`,
			wantContains: `href="mailto:team@example.com"`,
		},
		{
			name:         "images keep their extension",
			html:         `<img src="./diagram.md">`,
			wantContains: `src="./diagram.md"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteLinks(tt.html, "/site/docs", "/site/docs")
			if err != nil {
				t.Fatalf("RewriteLinks() error = %v", err)
			}
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("RewriteLinks() = %q, want to contain %q", got, tt.wantContains)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRewriteLinks - Rebasing onto the output directory
// ---------------------------------------------------------------------------

func TestRewriteLinks_Rebase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		html         string
		wantContains string
	}{
		{
			name:         "image rebased",
			html:         `<img src="images/logo.png">`,
			wantContains: `src="../docs/images/logo.png"`,
		},
		{
			name:         "markdown link renamed, not rebased",
			html:         `<a href="./other.md#top">Other</a>`,
			wantContains: `href="./other.html#top"`,
		},
		{
			name:         "other link rebased",
			html:         `<a href="notes.txt">Notes</a>`,
			wantContains: `href="../docs/notes.txt"`,
		},
		{
			name:         "traversal left alone",
			html:         `<img src="../../../etc/passwd">`,
			wantContains: `src="../../../etc/passwd"`,
		},
		{
			name:         "data URI unchanged",
			html:         `<img src="data:image/png;base64,ABC123">`,
			wantContains: `src="data:image/png;base64,ABC123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteLinks(tt.html, "/site/docs", "/site/out")
			if err != nil {
				t.Fatalf("RewriteLinks() error = %v", err)
			}
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("RewriteLinks() = %q, want to contain %q", got, tt.wantContains)
			}
		})
	}
}

func TestRewriteLinks_NoDirectoriesOnlyRenames(t *testing.T) {
	t.Parallel()

	got, err := RewriteLinks(`<img src="a.png"><a href="b.md">b</a>`, "", "")
	if err != nil {
		t.Fatalf("RewriteLinks() error = %v", err)
	}
	if !strings.Contains(got, `src="a.png"`) || !strings.Contains(got, `href="b.html"`) {
		t.Errorf("RewriteLinks() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestRewriteLinks - Fragment handling
// ---------------------------------------------------------------------------

func TestRewriteLinks_UnchangedReturnsInput(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`<p>no links at all</p>`,
		`<p><img src="https://example.com/x.png"><svg viewBox="0 0 10 10"></svg></p>`,
	}

	for _, in := range inputs {
		got, err := RewriteLinks(in, "/site/docs", "/site/docs")
		if err != nil {
			t.Fatalf("RewriteLinks() error = %v", err)
		}
		if got != in {
			t.Errorf("RewriteLinks(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestRewriteLinks_Fragment(t *testing.T) {
	t.Parallel()

	in := `<p>Hello</p><p><a href="next.md" class="nav">Next</a></p><p>World</p>`

	got, err := RewriteLinks(in, "", "")
	if err != nil {
		t.Fatalf("RewriteLinks() error = %v", err)
	}

	if strings.Contains(got, "<html>") || strings.Contains(got, "<body>") {
		t.Error("fragment should not be wrapped")
	}
	for _, want := range []string{"<p>Hello</p>", `class="nav"`, `href="next.html"`, "<p>World</p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("RewriteLinks() = %q, want to contain %q", got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestIsRelativePath - Helper Function Tests
// ---------------------------------------------------------------------------

func TestIsRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		// Relative paths (should return true)
		{"./image.png", true},
		{"images/logo.png", true},
		{"../parent.png", true},
		{"file.md", true},
		{"sub/dir/file.png", true},

		// Non-relative paths (should return false)
		{"", false},
		{"http://example.com/img.png", false},
		{"https://example.com/img.png", false},
		{"file:///abs/path.png", false},
		{"data:image/png;base64,ABC", false},
		{"mailto:a@b.c", false},
		{"//cdn.example.com/img.png", false},
		{"#anchor", false},
		{"/absolute/path.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := isRelativePath(tt.path); got != tt.want {
				t.Errorf("isRelativePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsPathUnderDir - Security Helper Tests
// ---------------------------------------------------------------------------

func TestIsPathUnderDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		absPath string
		dir     string
		want    bool
	}{
		{"direct child", "/docs/image.png", "/docs", true},
		{"nested child", "/docs/images/logo.png", "/docs", true},
		{"parent directory", "/etc/passwd", "/docs", false},
		{"sibling directory", "/other/file.png", "/docs", false},
		{"dir with trailing slash", "/docs/image.png", "/docs/", true},
		{"similar prefix but different dir", "/docs-other/image.png", "/docs", false},
		{"exact match", "/docs", "/docs", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			absPath := filepath.FromSlash(tt.absPath)
			dir := filepath.FromSlash(tt.dir)

			if got := isPathUnderDir(absPath, dir); got != tt.want {
				t.Errorf("isPathUnderDir(%q, %q) = %v, want %v", absPath, dir, got, tt.want)
			}
		})
	}
}
