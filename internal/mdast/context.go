package mdast

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/parser"
)

// DefaultFilename names documents whose path is unknown.
const DefaultFilename = "code"

var documentKey = parser.NewContextKey()

// Document is the per-document state shared by the transform passes.
// It lives in the goldmark parser.Context of one parse and is never shared
// across documents.
type Document struct {
	Filename string
	counter  int
}

// NewDocument returns a Document for the given base name.
func NewDocument(filename string) *Document {
	if filename == "" {
		filename = DefaultFilename
	}
	return &Document{Filename: filename}
}

// NextID returns the next automatic block id, "<filename>-<n>" with n
// starting at 1.
func (d *Document) NextID() string {
	d.counter++
	return d.Filename + "-" + strconv.Itoa(d.counter)
}

// NewContext returns a parser context carrying a fresh Document.
func NewContext(filename string) parser.Context {
	pc := parser.NewContext()
	pc.Set(documentKey, NewDocument(filename))
	return pc
}

// DocumentFrom returns the Document stored in pc, attaching a default one
// when the caller parsed without NewContext.
func DocumentFrom(pc parser.Context) *Document {
	if d, ok := pc.Get(documentKey).(*Document); ok {
		return d
	}
	d := NewDocument("")
	pc.Set(documentKey, d)
	return d
}

// DocumentName derives the id prefix from a source path: the base name
// without its Markdown extension.
func DocumentName(path string) string {
	if path == "" {
		return DefaultFilename
	}
	base := filepath.Base(path)
	for _, ext := range []string{".mdx", ".markdown", ".md"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return DefaultFilename
	}
	return base
}

// OutputKey returns the fully qualified output map key for a block id.
func OutputKey(filename, id string) string {
	return filename + "::" + id
}
