// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site.
// It supports full-page and HTMX partial rendering, automatically detecting
// the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"spacetraveling/internal/format"
	"spacetraveling/internal/models"
	"spacetraveling/internal/richtext"
)

//go:embed templates/site/*.html
var siteFS embed.FS

// PageData holds all data passed to site templates.
type PageData struct {
	Title   string // Page title for <title> tag
	Preview bool   // Content was read through a preview ref
	Data    any    // Page-specific data
}

// Renderer handles template parsing and execution for site pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// layoutFiles are parsed together with every page that uses the layout.
var layoutFiles = []string{"base.html", "partials.html"}

// standaloneTemplates lists templates that render without the base layout
// (they have their own <html>, <head>, etc. or are fragments).
var standaloneTemplates = map[string]bool{
	"fallback": true,
	"more":     true,
	"redirect": true,
}

// New creates a Renderer by parsing all site templates from the embedded
// filesystem. Each page template is paired with the base layout.
// When devMode is true, pages are marked noindex and load unminified assets.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// displayDate formats a nullable publication date. A malformed
			// date aborts template execution.
			"displayDate": format.DisplayDate,
			// richText renders a rich text field to HTML.
			"richText": func(rt richtext.RichText) (template.HTML, error) {
				s, err := richtext.AsHTML(rt, DocumentLink)
				return template.HTML(s), err
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// isDev returns true when the app runs in development mode.
			"isDev": func() bool {
				return devMode
			},
		},
	}

	entries, err := siteFS.ReadDir("templates/site")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isLayout(name) {
			continue
		}
		tmplName := name[:len(name)-len(".html")]

		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(
				siteFS, "templates/site/partials.html", "templates/site/"+name,
			)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(
				siteFS, "templates/site/base.html", "templates/site/partials.html", "templates/site/"+name,
			)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		r.templates[tmplName] = tmpl
	}

	return r, nil
}

func isLayout(name string) bool {
	for _, l := range layoutFiles {
		if l == name {
			return true
		}
	}
	return false
}

// Bytes renders a complete page to memory, for caching.
func (rn *Renderer) Bytes(name string, data *PageData) ([]byte, error) {
	return rn.execute(name, rootTemplate(name), data)
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent. Output is
// buffered so a failing template yields a clean 500.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	execName := rootTemplate(name)
	if isHTMX(r) && !standaloneTemplates[name] {
		execName = "content"
	}

	body, err := rn.execute(name, execName, data)
	if err != nil {
		slog.Error("render page", "template", name, "error", err)
		if name != "error" {
			rn.Error(w, r, http.StatusInternalServerError)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	HTML(w, status, body)
}

// ErrorPage is the data of the error template.
type ErrorPage struct {
	Status  int
	Message string
}

// errorMessages are shown to visitors, keyed by status.
var errorMessages = map[int]string{
	http.StatusBadRequest:          "Requisição inválida.",
	http.StatusTooManyRequests:     "Muitas requisições. Tente novamente em instantes.",
	http.StatusInternalServerError: "Algo deu errado. Tente novamente mais tarde.",
	http.StatusBadGateway:          "Não foi possível carregar os posts. Tente novamente.",
}

// Error writes the site's error page for status. Clients asking for JSON,
// such as the load-more script, get {"message": ...} instead.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	w.Header().Set("Cache-Control", "no-store")

	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"message": msg})
		return
	}
	rn.Page(w, r, status, "error", &PageData{
		Title: msg,
		Data:  &ErrorPage{Status: status, Message: msg},
	})
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// HTML writes an already rendered page.
func HTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

func (rn *Renderer) execute(name, execName string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// rootTemplate is the template executed for a full render of name.
func rootTemplate(name string) string {
	if standaloneTemplates[name] {
		return name + ".html"
	}
	return "base.html"
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// DocumentLink resolves document links inside rich text the same way the
// preview resolves its destination: posts to their page, anything else to
// the home page.
func DocumentLink(d *richtext.SpanData) string {
	if d.Type == models.PublicationsType && d.UID != "" {
		return "/post/" + d.UID
	}
	return "/"
}
