package pipeline

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mdtypst/internal/fileutil"
)

// RewriteLinks adjusts relative links in a rendered fragment for the built
// site. Links to Markdown sources point to their .html output, keeping any
// query or fragment. When the page is written to a directory other than its
// source's, other relative image and link paths are rebased onto outputDir.
// Fragments without a change are returned as given.
//
// Does NOT rewrite (by design):
//   - srcset attributes (complex format, out of scope)
//   - CSS url() references (out of scope)
//   - Absolute paths or URLs (already resolved)
//   - Paths escaping sourceDir
func RewriteLinks(htmlContent, sourceDir, outputDir string) (string, error) {
	if !strings.Contains(htmlContent, "href=") && !strings.Contains(htmlContent, "src=") {
		return htmlContent, nil
	}

	rb, err := newRebaser(sourceDir, outputDir)
	if err != nil {
		return "", err
	}

	doc, err := parseFragment(htmlContent)
	if err != nil {
		return "", err
	}

	if !rewriteNode(doc, rb) {
		return htmlContent, nil
	}
	return renderFragment(doc)
}

// rebaser maps paths relative to a source directory onto an output
// directory. A nil rebaser leaves paths alone.
type rebaser struct {
	sourceDir string
	outputDir string
}

func newRebaser(sourceDir, outputDir string) (*rebaser, error) {
	if sourceDir == "" || outputDir == "" {
		return nil, nil
	}
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	if src == out {
		return nil, nil
	}
	return &rebaser{sourceDir: src, outputDir: out}, nil
}

func (r *rebaser) rebase(p string) (string, bool) {
	if r == nil {
		return p, false
	}
	abs := filepath.Join(r.sourceDir, filepath.FromSlash(p))
	if !isPathUnderDir(abs, r.sourceDir) {
		return p, false
	}
	rel, err := filepath.Rel(r.outputDir, abs)
	if err != nil {
		return p, false
	}
	return filepath.ToSlash(rel), true
}

// parseFragment parses HTML in a body context so no wrapper elements are
// added, and collects the nodes under one container for traversal.
func parseFragment(content string) (*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// renderFragment renders the container's children only.
func renderFragment(doc *html.Node) (string, error) {
	var buf strings.Builder
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and reports whether any attribute changed.
func rewriteNode(n *html.Node, rb *rebaser) bool {
	changed := false
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			changed = rewriteAttr(n, "src", rb, false)
		case "a":
			changed = rewriteAttr(n, "href", rb, true)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if rewriteNode(c, rb) {
			changed = true
		}
	}
	return changed
}

func rewriteAttr(n *html.Node, attrName string, rb *rebaser, pages bool) bool {
	changed := false
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}

		p, suffix := splitSuffix(attr.Val)
		switch {
		case pages && fileutil.IsMarkdown(p):
			// Pages are mirrored into the output tree, so the relative
			// link still holds there.
			p = strings.TrimSuffix(p, path.Ext(p)) + ".html"
		default:
			if rebased, ok := rb.rebase(p); ok {
				p = rebased
			}
		}

		if val := p + suffix; val != attr.Val {
			n.Attr[i].Val = val
			changed = true
		}
	}
	return changed
}

// splitSuffix separates a URL path from its query and fragment.
func splitSuffix(val string) (string, string) {
	if i := strings.IndexAny(val, "?#"); i >= 0 {
		return val[:i], val[i:]
	}
	return val, ""
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(p string) bool {
	if p == "" {
		return false
	}

	// Skip URLs (http, https, mailto, data, protocol-relative)
	if strings.HasPrefix(p, "//") || strings.Contains(strings.SplitN(p, "/", 2)[0], ":") {
		return false
	}

	// Skip anchors and site-absolute paths
	if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "/") {
		return false
	}

	return !filepath.IsAbs(p)
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	// Ensure dir ends with separator for correct prefix matching
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}
