package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer 實作 echo.Renderer，每個頁面各自與 layout 組合成一組模板
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("NewRenderer: %w", err)
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New(path.Base(f)).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("NewRenderer: %s: %w", f, err)
		}
		r.pages[path.Base(f)] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
