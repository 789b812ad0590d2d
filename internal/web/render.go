package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "documents", "convert"
}

// ListPageData is the template data for the document list page.
type ListPageData struct {
	PageData
	Items      []ops.DocumentSummary
	Pagination ops.Pagination
}

// Segment is a run of document text, optionally covered by a marker.
type Segment struct {
	Text   string
	Marker *annotate.Marker
}

// DetailPageData is the template data for the annotated document page.
type DetailPageData struct {
	PageData
	Document     *ops.FetchOutput
	Segments     []Segment
	OutOfGamut   int
	RenderedHTML template.HTML
}

// ConvertPageData is the template data for the converter page.
type ConvertPageData struct {
	PageData
	L, C, H, Alpha string
	Result         *ops.ConvertOutput
	Error          string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatTime":  formatTime,
		"formatChars": formatChars,
		"swatchStyle": swatchStyle,
		"background":  background,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":    "list.html",
		"detail":  "detail.html",
		"convert": "convert.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternal(err)
	}

	status := appErr.Status
	message := appErr.Message
	if appErr.Code == errors.ErrInternal {
		log.Printf("internal error on %s %s: %v", req.Method, req.URL.Path, err)
		message = "an internal error occurred"
	}

	// HTMX request: return HTML fragment
	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	// JSON request
	if wantsJSON(req) {
		errObj := map[string]any{
			"code":    string(appErr.Code),
			"message": message,
			"status":  status,
		}
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errObj["details"] = appErr.Details
		}
		renderJSON(w, status, map[string]any{"error": errObj})
		return
	}

	// Full error page
	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

// wantsJSON reports whether the request asked for JSON or targets the API.
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// isMarkdown reports whether a document name looks like markdown.
func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// segmentText splits text at marker byte offsets. Markers must be ordered
// and non-overlapping, which a marker set always is.
func segmentText(text string, markers []annotate.Marker) []Segment {
	segments := make([]Segment, 0, 2*len(markers)+1)
	pos := 0
	for i := range markers {
		m := &markers[i]
		if m.Offsets.Start < pos || m.Offsets.End > len(text) {
			continue
		}
		if m.Offsets.Start > pos {
			segments = append(segments, Segment{Text: text[pos:m.Offsets.Start]})
		}
		segments = append(segments, Segment{Text: text[m.Offsets.Start:m.Offsets.End], Marker: m})
		pos = m.Offsets.End
	}
	if pos < len(text) {
		segments = append(segments, Segment{Text: text[pos:]})
	}
	return segments
}

// swatchStyle builds the inline style for a marker's swatch. Swatch values
// are generated rgb()/rgba() strings and borders come from operator config.
func swatchStyle(m *annotate.Marker) template.CSS {
	return template.CSS(fmt.Sprintf("background-color: %s; border: %s", m.Swatch, m.BorderCSS))
}

// background styles a plain swatch from a generated hex color.
func background(hex string) template.CSS {
	return template.CSS("background-color: " + hex)
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatChars formats an integer with comma thousands separators.
func formatChars(n int) string {
	if n < 0 {
		return "-" + formatChars(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
