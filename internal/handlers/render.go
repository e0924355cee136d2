package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the embedded stylesheet under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Page is what every template executes against. Data holds the page-specific view.
type Page struct {
	CurrentUser *models.User
	Flash       string
	Data        any
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 UTC") },
	"iso":      func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}

// Renderer holds one parsed template set per page, each combined with the
// layout and the shared partials.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	var shared, pages []string
	for _, f := range files {
		base := path.Base(f)
		if base == "layout.html" || strings.HasPrefix(base, "_") {
			shared = append(shared, f)
			continue
		}
		pages = append(pages, f)
	}

	v := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, f := range pages {
		name := path.Base(f)
		set := append(shared[:len(shared):len(shared)], f)
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, set...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render executes page name into a buffer and writes it with status. A
// pending flash message is consumed.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := v.pages[name]
	if !ok {
		slog.Error("render: unknown template", "template", name)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	p := Page{Data: data, Flash: popFlash(w, r)}
	if u, ok := middleware.CurrentUser(r.Context()); ok {
		p.CurrentUser = u
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("render: execute", "template", name, "error", err)
		http.Error(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
