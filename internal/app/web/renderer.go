// Package web renders the server-side HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	accountmw "account_portal/internal/feature/account/transport/middleware"
	"account_portal/internal/platform/csrf"
	"account_portal/internal/platform/logging"
)

//go:embed templates
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

// Templates holds one template set per page, each combined with the shared layout.
// It implements gin's render.HTMLRender.
type Templates struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Templates)(nil)

// LoadTemplates parses every page under templates/ together with the layout.
// Page names are their paths without the extension, e.g. "account/signup".
func LoadTemplates() (*Templates, error) {
	t := &Templates{pages: map[string]*template.Template{}}

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == layoutFile || !strings.HasSuffix(path, ".html") {
			return nil
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		page, err := template.New(name).ParseFS(templatesFS, layoutFile, path)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = page
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Instance returns the renderer for page name.
func (t *Templates) Instance(name string, data any) render.Render {
	page, ok := t.pages[name]
	if !ok {
		return missingPage{name: name}
	}
	return render.HTML{Template: page, Name: "layout", Data: data}
}

type missingPage struct{ name string }

func (m missingPage) Render(http.ResponseWriter) error {
	return fmt.Errorf("template %q not found", m.name)
}

func (m missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// Renderer fills the values every page needs and writes HTML responses.
type Renderer struct {
	appName string
	flashes func(c *gin.Context) map[string][]string
}

// NewRenderer creates a Renderer. flashes consumes the pending messages of the request's session.
func NewRenderer(appName string, flashes func(c *gin.Context) map[string][]string) *Renderer {
	return &Renderer{appName: appName, flashes: flashes}
}

func (r *Renderer) pageData(c *gin.Context, data gin.H) gin.H {
	out := gin.H{}
	for k, v := range data {
		out[k] = v
	}
	messages := map[string][]string{}
	if r.flashes != nil {
		if consumed := r.flashes(c); consumed != nil {
			messages = consumed
		}
	}
	out["messages"] = messages
	out["csrfToken"] = csrf.Token(c)
	out["appName"] = r.appName
	if account := accountmw.AccountFromContext(c); account != nil {
		out["user"] = account
	}
	return out
}

// HTML renders page name with status 200.
func (r *Renderer) HTML(c *gin.Context, name string, data gin.H) {
	c.HTML(http.StatusOK, name, r.pageData(c, data))
}

// Error logs err and renders the generic error page with status 500.
func (r *Renderer) Error(c *gin.Context, err error) {
	logging.Error(slog.Default(), "request failed", err)
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "error", r.pageData(c, gin.H{"title": "Error"}))
	c.Abort()
}
