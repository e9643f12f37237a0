package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/justestif/go-mood-companion/internal/controller"
	"github.com/justestif/go-mood-companion/internal/display"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates holds the parsed pages.
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates parses the embedded pages.
func NewTemplates() (*Templates, error) {
	return loadTemplates(templatesFS)
}

func loadTemplates(fsys fs.FS) (*Templates, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("finding pages: %w", err)
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(defaultFuncs()).ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render renders a page with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.Execute(w, data)
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// orNA shows the display placeholder for empty values.
		"orNA": func(s string) string {
			if s == "" {
				return display.NoPlaylist
			}
			return s
		},
	}
}

// StatusPageData is passed to the status page.
type StatusPageData struct {
	Title  string
	Status controller.Status
}
