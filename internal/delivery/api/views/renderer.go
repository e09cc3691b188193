// Package views renders the server-side HTML pages.
package views

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	deliverycontext "tours/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("January 2006")
	},
	"firstName": func(name string) string {
		first, _, _ := strings.Cut(strings.TrimSpace(name), " ")

		return first
	},
}

// Renderer implements echo.Renderer. Every page is parsed together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded page templates.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}

		tmpl, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", file)
		}
		pages[path.Base(file)] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes the named page. Data maps get the logged-in credential added as "User".
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}

	if values, ok := data.(map[string]any); ok {
		if credential, found := deliverycontext.GetCredential(c); found {
			values["User"] = credential
		}
	}

	return errors.WithStack(tmpl.ExecuteTemplate(w, "layout", data))
}
