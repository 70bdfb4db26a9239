package handler

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/service"
	"github.com/sakif/portfolio/internal/session"
)

// AdminHandler serves the admin page and the JSON admin API.
//
// Every route except the page itself and login sits behind
// session.RequireSession, so handlers can assume a session in the context.
type AdminHandler struct {
	gate     *service.SessionGate
	sessions *session.Store
	limiter  *auth.LoginLimiter
	page     *template.Template
	logger   *slog.Logger
}

func NewAdminHandler(
	gate *service.SessionGate,
	sessions *session.Store,
	limiter *auth.LoginLimiter,
	templates fs.FS,
	logger *slog.Logger,
) (*AdminHandler, error) {
	page, err := template.ParseFS(templates, "base.html", "admin.html")
	if err != nil {
		return nil, err
	}
	return &AdminHandler{
		gate:     gate,
		sessions: sessions,
		limiter:  limiter,
		page:     page,
		logger:   logger,
	}, nil
}

// HandlePage serves GET /admin. The page always starts at the password
// prompt; nothing about a previous session survives a reload.
func (h *AdminHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.page.ExecuteTemplate(w, "base", map[string]any{"Title": "Admin"}); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", "admin"),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	State     service.EditorState `json:"state"`
}

// HandleLogin serves POST /api/admin/login.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	client := clientIP(r)
	if !h.limiter.Allow(r.Context(), client) {
		h.logger.Warn("login throttled", slog.String("client", client))
		writeError(w, apperror.TooManyRequests("Too many login attempts, try again later"))
		return
	}

	if err := h.gate.Authenticate(r.Context(), req.Password); err != nil {
		writeError(w, err)
		return
	}

	sess, token, err := h.sessions.Create()
	if err != nil {
		h.logger.Error("creating admin session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	sess.Editor.LoadAll(r.Context())

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		State:     sess.Editor.Snapshot(),
	})
}

// HandleLogout serves POST /api/admin/logout.
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	h.sessions.End(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleState serves GET /api/admin/state.
func (h *AdminHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, editorFrom(r).Snapshot())
}

// PUT /api/admin/hero
func (h *AdminHandler) HandleSaveHero(w http.ResponseWriter, r *http.Request) {
	var v model.Hero
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, err)
		return
	}
	ed := editorFrom(r)
	respondState(w, ed, http.StatusOK, ed.SaveHero(r.Context(), v))
}

// PUT /api/admin/footer
func (h *AdminHandler) HandleSaveFooter(w http.ResponseWriter, r *http.Request) {
	var v model.Footer
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, err)
		return
	}
	ed := editorFrom(r)
	respondState(w, ed, http.StatusOK, ed.SaveFooter(r.Context(), v))
}

// PUT /api/admin/cv
func (h *AdminHandler) HandleSaveCV(w http.ResponseWriter, r *http.Request) {
	var v model.CV
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, err)
		return
	}
	ed := editorFrom(r)
	respondState(w, ed, http.StatusOK, ed.SaveCV(r.Context(), v))
}

type changePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PUT /api/admin/security
func (h *AdminHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ed := editorFrom(r)
	respondState(w, ed, http.StatusOK, ed.ChangePassword(r.Context(), req.NewPassword, req.ConfirmPassword))
}

// ItemRoutes mounts the CRUD and edit-slot routes for one collection:
//
//	POST   /            create with placeholder text
//	POST   /cancel      leave Editing
//	PUT    /{id}        save all fields
//	DELETE /{id}        delete
//	POST   /{id}/edit   enter Editing
func (h *AdminHandler) ItemRoutes(kind service.ItemKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.handleCreate(kind))
		r.Post("/cancel", h.handleCancel(kind))
		r.Put("/{id}", h.handleUpdate(kind))
		r.Delete("/{id}", h.handleDelete(kind))
		r.Post("/{id}/edit", h.handleBeginEdit(kind))
	}
}

func (h *AdminHandler) handleCreate(kind service.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := editorFrom(r)
		var err error
		switch kind {
		case service.KindCertificate:
			_, err = ed.CreateCertificate(r.Context())
		case service.KindExperience:
			_, err = ed.CreateExperience(r.Context())
		}
		respondState(w, ed, http.StatusCreated, err)
	}
}

func (h *AdminHandler) handleUpdate(kind service.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := editorFrom(r)
		id := chi.URLParam(r, "id")

		var err error
		switch kind {
		case service.KindCertificate:
			var c model.Certificate
			if err = decodeJSON(w, r, &c); err == nil {
				c.ID = id
				err = ed.UpdateCertificate(r.Context(), c)
			}
		case service.KindExperience:
			var x model.Experience
			if err = decodeJSON(w, r, &x); err == nil {
				x.ID = id
				err = ed.UpdateExperience(r.Context(), x)
			}
		}
		respondState(w, ed, http.StatusOK, err)
	}
}

func (h *AdminHandler) handleDelete(kind service.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := editorFrom(r)
		id := chi.URLParam(r, "id")

		var err error
		switch kind {
		case service.KindCertificate:
			err = ed.DeleteCertificate(r.Context(), id)
		case service.KindExperience:
			err = ed.DeleteExperience(r.Context(), id)
		}
		respondState(w, ed, http.StatusOK, err)
	}
}

func (h *AdminHandler) handleBeginEdit(kind service.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := editorFrom(r)
		respondState(w, ed, http.StatusOK, ed.BeginEdit(kind, chi.URLParam(r, "id")))
	}
}

func (h *AdminHandler) handleCancel(kind service.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := editorFrom(r)
		respondState(w, ed, http.StatusOK, ed.CancelEdit(kind))
	}
}

// respondState writes the editor snapshot on success and the mapped error
// otherwise. The page fetches /state after an error to show the status.
func respondState(w http.ResponseWriter, ed *service.Editor, status int, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, ed.Snapshot())
}

func editorFrom(r *http.Request) *service.Editor {
	sess, _ := session.FromContext(r.Context())
	return sess.Editor
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already replaced it with X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
