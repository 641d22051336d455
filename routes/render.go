package routes

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return "$" + d.StringFixed(2)
	},
	"pct": func(d decimal.Decimal) string {
		return d.StringFixed(0)
	},
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"datetime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"optdate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "..."
	},
}

// htmlTemplates renders each page inside the shared layout.
type htmlTemplates map[string]*template.Template

func (t htmlTemplates) Instance(name string, data any) render.Render {
	tmpl, ok := t[name]
	if !ok {
		tmpl = t["pages/error.html"]
	}
	return render.HTML{Template: tmpl, Name: "layout", Data: data}
}

func loadTemplates() (htmlTemplates, error) {
	templates := make(htmlTemplates)
	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Base(p) == "layout.html" {
			return err
		}
		name := strings.TrimPrefix(p, "templates/")
		tmpl, err := template.New(path.Base(p)).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, ok := templates["pages/error.html"]; !ok {
		return nil, fmt.Errorf("missing pages/error.html")
	}
	return templates, nil
}

// html renders page with the current user and pending flash messages.
func (rt *Routes) html(c *gin.Context, code int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = currentUser(c)
	data["Flashes"] = rt.popFlashes(c)
	data["Year"] = time.Now().Year()
	if _, ok := data["Title"]; !ok {
		data["Title"] = "HandsUp"
	}
	c.HTML(code, page, data)
}

func (rt *Routes) errorPage(c *gin.Context, code int, message string) {
	rt.html(c, code, "pages/error.html", gin.H{
		"Title":   http.StatusText(code),
		"Code":    code,
		"Message": message,
	})
}

func (rt *Routes) NotFound(c *gin.Context) {
	rt.errorPage(c, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (rt *Routes) staticPage(page, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt.html(c, http.StatusOK, page, gin.H{"Title": title})
	}
}
