package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"

	"github.com/alnah/go-mdtypst/internal/yamlutil"
)

// ErrFrontMatter indicates the front matter block could not be decoded.
var ErrFrontMatter = errors.New("invalid front matter")

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// frontMatterFormats are the accepted front matter delimiters: YAML between
// "---" lines and TOML between "+++" lines.
var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yamlutil.UnmarshalFrontMatter),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// FrontMatter holds the metadata block at the top of a document.
type FrontMatter map[string]any

// String returns the value of key when it is a string.
func (f FrontMatter) String(key string) string {
	s, _ := f[key].(string)
	return strings.TrimSpace(s)
}

// Title returns the "title" entry.
func (f FrontMatter) Title() string { return f.String("title") }

// Description returns the "description" entry.
func (f FrontMatter) Description() string { return f.String("description") }

// Lang returns the "lang" entry.
func (f FrontMatter) Lang() string { return f.String("lang") }

// Preprocess normalizes line endings and strips the front matter block.
// Code is never rewritten: blank lines and inline markers inside fenced
// blocks must reach the interpreters unchanged.
func Preprocess(content []byte) ([]byte, FrontMatter, error) {
	content = normalizeLineEndings(content)

	fm := FrontMatter{}
	body, err := frontmatter.Parse(bytes.NewReader(content), &fm, frontMatterFormats...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	return body, fm, nil
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content []byte) []byte {
	if !bytes.ContainsRune(content, '\r') {
		return content
	}
	return crlfOrCR.ReplaceAll(content, []byte("\n"))
}
