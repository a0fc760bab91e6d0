package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"upbilling/models"
)

//go:embed layout.html pages/*.html pdf/*.html
var files embed.FS

// Funcs are shared by pages and PDF documents.
var Funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006")
	},
	"quoteStates":   func() []models.QuoteState { return models.QuoteStates },
	"invoiceStates": func() []models.InvoiceState { return models.InvoiceStates },
	"inc":           func(i int) int { return i + 1 },
	"field": func(parts ...any) string {
		var b strings.Builder
		for n, p := range parts {
			if n == 0 {
				fmt.Fprint(&b, p)
				continue
			}
			fmt.Fprintf(&b, "[%v]", p)
		}
		return b.String()
	},
}

// Set holds parsed page and document templates.
type Set struct {
	pages map[string]*template.Template
	pdf   *template.Template
}

// Load parses every embedded template. Each page is paired with the layout.
func Load() (*Set, error) {
	s := &Set{pages: map[string]*template.Template{}}

	names, err := fs.Glob(files, "pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(Funcs).ParseFS(files, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		s.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}

	s.pdf, err = template.New("pdf").Funcs(Funcs).ParseFS(files, "pdf/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse pdf templates: %w", err)
	}
	return s, nil
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Set {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Page renders a page inside the layout.
func (s *Set) Page(w io.Writer, name string, data any) error {
	t, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// Document renders one of the PDF templates: invoice.html, quote.html, header.html or footer.html.
func (s *Set) Document(w io.Writer, name string, data any) error {
	return s.pdf.ExecuteTemplate(w, name, data)
}
