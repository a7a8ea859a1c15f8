package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/alnah/go-mdtypst/internal/assets"
	"github.com/alnah/go-mdtypst/internal/dateutil"
)

// ErrPageTemplate indicates the page template failed to parse or execute.
var ErrPageTemplate = errors.New("page template failed")

// DefaultLang is the document language when the front matter sets none.
const DefaultLang = "en"

// PageData is the input of the page template.
type PageData struct {
	Title       string
	Description string
	Lang        string
	Date        string
	DateISO     string
	Style       template.CSS
	Body        template.HTML
}

// Page wraps rendered fragments into standalone HTML documents.
type Page struct {
	tmpl  *template.Template
	style string
	dates dateutil.Setting
	date  dateutil.Page
}

// NewPage loads the named stylesheet and template from loader. extraCSS is
// appended to the stylesheet, typically the highlighter's classes.
func NewPage(loader assets.AssetLoader, styleName, templateName, extraCSS string) (*Page, error) {
	if styleName == "" {
		styleName = assets.DefaultStyleName
	}
	if templateName == "" {
		templateName = assets.DefaultTemplateName
	}

	css, err := loader.LoadStyle(styleName)
	if err != nil {
		return nil, err
	}
	src, err := loader.LoadTemplate(templateName)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(templateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}

	if extraCSS != "" {
		css += "\n" + extraCSS
	}
	return &Page{tmpl: tmpl, style: css}, nil
}

// WithDate sets how page dates are shown. Pages whose front matter has
// no date get the setting's default at build time now.
func (p *Page) WithDate(dates dateutil.Setting, now time.Time) *Page {
	p.dates = dates
	p.date = dates.Default(now)
	return p
}

// Wrap returns the full HTML document for a rendered body.
func (p *Page) Wrap(doc *Document, body string) (string, error) {
	data := PageData{
		Title:   doc.Title,
		Lang:    DefaultLang,
		Date:    p.date.Text,
		DateISO: p.date.ISO,
		// Stylesheets come from the embedded assets or the configured
		// assets directory, never from document content.
		Style: template.CSS(p.style),
		Body:  template.HTML(body),
	}
	if doc.FrontMatter != nil {
		data.Description = doc.FrontMatter.Description()
		if lang := doc.FrontMatter.Lang(); lang != "" {
			data.Lang = lang
		}
		if date, ok := p.dates.FrontMatter(doc.FrontMatter["date"]); ok {
			data.Date, data.DateISO = date.Text, date.ISO
		}
	}
	if data.Title == "" {
		data.Title = doc.Name
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}
	return buf.String(), nil
}
