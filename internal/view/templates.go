package view

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/web"
)

// Currency is the single currency label printed next to prices.
const Currency = "Kč"

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Customer    string
	LoggedIn    bool
	IsAdmin     bool
	CartCount   int
	Data        any
}

// Funcs returns the helpers available to every template, including report templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006")
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2) + " " + Currency
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}
}

// NewEngine parses the embedded page templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// Page fills the session derived fields of data (CSRF token, flash, navigation
// state), renders the page into a buffer and writes it with status. Rendering
// into a buffer first keeps a template error from producing half a page.
func (e *Engine) Page(w http.ResponseWriter, r *http.Request, csrf *shared.CSRFManager, logger *slog.Logger, name string, data TemplateData, status int) {
	sess := shared.SessionFromContext(r.Context())
	if csrf != nil && sess != nil {
		token, err := csrf.EnsureToken(r.Context(), sess)
		if err != nil && logger != nil {
			logger.Warn("ensure csrf token", slog.Any("error", err))
		}
		data.CSRFToken = token
	}
	if sess != nil {
		data.Flash = sess.PopFlash()
		_, data.LoggedIn = sess.Customer()
		data.Customer = sess.CustomerEmail()
		_, data.IsAdmin = sess.Admin()
		for _, line := range sess.CartLines() {
			data.CartCount += line.Quantity
		}
	}
	if data.CurrentPath == "" {
		data.CurrentPath = r.URL.Path
	}

	var buf bytes.Buffer
	if e == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		if logger != nil {
			logger.Error("template render failed", slog.String("template", name), slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the shared 404 page.
func (e *Engine) NotFound(w http.ResponseWriter, r *http.Request, csrf *shared.CSRFManager, logger *slog.Logger) {
	e.Page(w, r, csrf, logger, "pages/not_found.html", TemplateData{Title: "Nenalezeno"}, http.StatusNotFound)
}
