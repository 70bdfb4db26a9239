// Package handler contains the HTTP handlers: the public portfolio page and
// its JSON sections, the admin page and API, and the asset upload endpoint.
//
// Handlers only translate between HTTP and the service layer. They parse
// the request, call one service method, and write the result or map the
// error through writeError.
package handler

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/service"
)

// PublicHandler renders the portfolio for visitors.
type PublicHandler struct {
	content *service.ContentService
	page    *template.Template
	logger  *slog.Logger
}

// NewPublicHandler parses base.html and index.html from templates once at
// startup.
func NewPublicHandler(content *service.ContentService, templates fs.FS, logger *slog.Logger) (*PublicHandler, error) {
	page, err := template.ParseFS(templates, "base.html", "index.html")
	if err != nil {
		return nil, err
	}
	return &PublicHandler{content: content, page: page, logger: logger}, nil
}

// HandleIndex serves GET /. Each section is loaded on its own; a section
// whose fetch failed is simply missing from the page.
func (h *PublicHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	p := h.content.PublicPage(r.Context())

	title := "Portfolio"
	if p.Hero != nil && p.Hero.Name != "" {
		title = p.Hero.Name + " | Portfolio"
	}

	data := map[string]any{
		"Title": title,
		"Page":  p,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", "index"),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GET /api/hero
func (h *PublicHandler) HandleHero(w http.ResponseWriter, r *http.Request) {
	v, err := h.content.Hero.LoadOrFallback(r.Context())
	h.respond(w, "hero", v, err)
}

// GET /api/certificates
func (h *PublicHandler) HandleCertificates(w http.ResponseWriter, r *http.Request) {
	v, err := h.content.Certificates.ListOrFallback(r.Context())
	h.respond(w, "certificates", v, err)
}

// GET /api/experience
func (h *PublicHandler) HandleExperience(w http.ResponseWriter, r *http.Request) {
	v, err := h.content.Experience.ListOrFallback(r.Context())
	h.respond(w, "experience", v, err)
}

// GET /api/cv
func (h *PublicHandler) HandleCV(w http.ResponseWriter, r *http.Request) {
	v, err := h.content.CV.LoadOrFallback(r.Context())
	h.respond(w, "cv", v, err)
}

// GET /api/footer
func (h *PublicHandler) HandleFooter(w http.ResponseWriter, r *http.Request) {
	v, err := h.content.Footer.LoadOrFallback(r.Context())
	h.respond(w, "footer", v, err)
}

func (h *PublicHandler) respond(w http.ResponseWriter, section string, v any, err error) {
	if err != nil {
		h.logger.Error("failed to load section",
			slog.String("section", section),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
