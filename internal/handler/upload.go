package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/asset"
)

// maxMultipartMemory is how much of a multipart body is held in memory;
// larger files spill to temporary files. It is not an upload size limit.
const maxMultipartMemory = 32 << 20

// UploadHandler serves POST /api/upload: a raw pass-through to the asset
// host that returns the host's metadata.
type UploadHandler struct {
	uploader asset.Uploader
	logger   *slog.Logger
}

func NewUploadHandler(uploader asset.Uploader, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, logger: logger}
}

type uploadError struct {
	Error string `json:"error"`
}

// HandleUpload expects multipart fields "file" and optional "resourceType"
// (image, raw, video or auto; default auto).
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, info, err := formFile(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadError{Error: "No file provided"})
		return
	}
	defer file.Close()

	kind := asset.ParseKind(r.FormValue("resourceType"))

	res, err := h.uploader.Upload(r.Context(), file, info, kind)
	if err != nil {
		h.logger.Error("upload failed",
			slog.String("file", info.Name),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, uploadError{Error: "Upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// POST /api/admin/hero/image
func (h *AdminHandler) HandleHeroImage(w http.ResponseWriter, r *http.Request) {
	file, info, err := formFile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	ed := editorFrom(r)
	_, err = ed.UploadHeroImage(r.Context(), file, info)
	respondState(w, ed, http.StatusOK, err)
}

// POST /api/admin/certificates/{id}/image
func (h *AdminHandler) HandleCertificateImage(w http.ResponseWriter, r *http.Request) {
	file, info, err := formFile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	ed := editorFrom(r)
	_, err = ed.UploadCertificateImage(r.Context(), chi.URLParam(r, "id"), file, info)
	respondState(w, ed, http.StatusOK, err)
}

// POST /api/admin/cv/file
func (h *AdminHandler) HandleCVFile(w http.ResponseWriter, r *http.Request) {
	file, info, err := formFile(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	ed := editorFrom(r)
	_, err = ed.UploadCV(r.Context(), file, info)
	respondState(w, ed, http.StatusOK, err)
}

// formFile pulls the "file" part out of a multipart request.
func formFile(r *http.Request) (multipart.File, asset.FileInfo, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, asset.FileInfo{}, apperror.ValidationFailed("file", "No file provided")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, asset.FileInfo{}, apperror.ValidationFailed("file", "No file provided")
	}

	return file, asset.FileInfo{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
