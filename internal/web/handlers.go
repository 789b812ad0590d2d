package web

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
)

// maxScanBody bounds POST /api/scan bodies before the character limit applies.
const maxScanBody = 8 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /documents: list stored documents.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListDocuments(r.Context(), h.db, ops.ListInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Documents",
			Version: h.renderer.version,
			Nav:     "documents",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleDetail handles GET /documents/{id}: the document with swatches.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return
	}

	doc, err := ops.FetchDocument(h.db, h.cfg, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := DetailPageData{
		PageData: PageData{
			Title:   doc.Name,
			Version: h.renderer.version,
			Nav:     "documents",
		},
		Document: doc,
		Segments: segmentText(doc.Text, doc.Markers),
	}
	for _, m := range doc.Markers {
		if !m.InGamut {
			data.OutOfGamut++
		}
	}
	if isMarkdown(doc.Name) {
		data.RenderedHTML = renderMarkdown(doc.Text)
	}

	h.renderer.renderPage(w, r, "detail", data)
}

// HandleMarkers handles GET /api/documents/{id}/markers.
func (h *Handlers) HandleMarkers(w http.ResponseWriter, r *http.Request) {
	includeText := false
	doc, err := ops.FetchDocument(h.db, h.cfg, ops.FetchInput{
		ID:          r.PathValue("id"),
		IncludeText: &includeText,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /documents/{id} and POST /documents/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("document ID is required"))
		return
	}

	result, err := ops.DeleteDocument(h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/documents")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}

// HandleConvert handles GET /convert: the single-color converter form.
func (h *Handlers) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := ConvertPageData{
		PageData: PageData{
			Title:   "Convert",
			Version: h.renderer.version,
			Nav:     "convert",
		},
		L:     q.Get("l"),
		C:     q.Get("c"),
		H:     q.Get("h"),
		Alpha: q.Get("alpha"),
	}

	if data.L != "" || data.C != "" || data.H != "" {
		result, err := ops.Convert(ops.ConvertInput{L: data.L, C: data.C, H: data.H, Alpha: data.Alpha})
		if err != nil {
			data.Error = err.Error()
		} else {
			data.Result = result
		}
	}

	h.renderer.renderPage(w, r, "convert", data)
}

// HandleAPIConvert handles GET /api/convert?l=&c=&h=&alpha=.
func (h *Handlers) HandleAPIConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("l") == "" || q.Get("c") == "" || q.Get("h") == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("l, c and h are required"))
		return
	}

	result, err := ops.Convert(ops.ConvertInput{L: q.Get("l"), C: q.Get("c"), H: q.Get("h"), Alpha: q.Get("alpha")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// scanRequest is the body of POST /api/scan.
type scanRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// HandleAPIScan handles POST /api/scan.
func (h *Handlers) HandleAPIScan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScanBody+1))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("failed to read request body"))
		return
	}
	if len(body) > maxScanBody {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("request body too large"))
		return
	}

	var req scanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	result, err := ops.Scan(h.cfg, ops.ScanInput{Name: req.Name, Text: req.Text})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if result.Markers == nil {
		result.Markers = []annotate.Marker{}
	}
	renderJSON(w, http.StatusOK, result)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
