package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer executes the embedded dashboard templates. Construct one at
// startup; rendering is safe for concurrent use.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded template set.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"fmtTime": func(t time.Time) string {
			return t.UTC().Format("Jan 2, 2006 15:04 UTC")
		},
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Page renders the full live dashboard document.
func (r *Renderer) Page(w io.Writer, d *Dashboard) error {
	return r.t.ExecuteTemplate(w, "page", d)
}

// Fragment renders the usage body alone, for in-place refresh swaps.
func (r *Renderer) Fragment(w io.Writer, d *Dashboard) error {
	return r.t.ExecuteTemplate(w, "usage-body", d)
}

// Report renders a self-contained static snapshot suitable for archiving.
// Transient notices do not belong in an archived document, so callers
// should clear them; the report template carries no scripts or controls.
func (r *Renderer) Report(w io.Writer, d *Dashboard) error {
	return r.t.ExecuteTemplate(w, "report", d)
}
