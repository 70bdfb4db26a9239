package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/asset"
)

func TestUploadHandler_HandleUpload(t *testing.T) {
	t.Run("uploads and returns host metadata", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "file", "photo.png", []byte("PNGDATA"), map[string]string{"resourceType": "image"})
		rr := app.upload(t, "/api/upload", token, body, ct)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var res asset.Result
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "https://res.example.com/portfolio/photo.png", res.SecureURL)
		assert.Equal(t, "portfolio/photo.png", res.PublicID)

		assert.Equal(t, asset.KindImage, app.uploader.CapturedKind)
		assert.Equal(t, "photo.png", app.uploader.CapturedInfo.Name)
		assert.Equal(t, []byte("PNGDATA"), app.uploader.CapturedBody, "bytes are forwarded unchanged")
	})

	t.Run("resource type defaults to auto", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "file", "doc.pdf", []byte("%PDF"), nil)
		rr := app.upload(t, "/api/upload", token, body, ct)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, asset.KindAuto, app.uploader.CapturedKind)
	})

	t.Run("missing file", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "", "", nil, map[string]string{"resourceType": "raw"})
		rr := app.upload(t, "/api/upload", token, body, ct)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"No file provided"}`, rr.Body.String())
	})

	t.Run("host failure", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)
		app.uploader.ReturnErr = errors.New("cloud said no")

		body, ct := multipartBody(t, "file", "a.png", []byte("x"), nil)
		rr := app.upload(t, "/api/upload", token, body, ct)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Upload failed"}`, rr.Body.String())
	})

	t.Run("requires admin session", func(t *testing.T) {
		app := newMemoryApp(t)

		body, ct := multipartBody(t, "file", "a.png", []byte("x"), nil)
		rr := app.upload(t, "/api/upload", "", body, ct)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAdminHandler_Uploads(t *testing.T) {
	t.Run("hero image sets local url", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "file", "me.png", []byte("img"), nil)
		rr := app.upload(t, "/api/admin/hero/image", token, body, ct)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		state := decodeState(t, rr)
		assert.Equal(t, "https://res.example.com/portfolio/me.png", state.Hero.ImageURL)
		assert.Equal(t, "Uploaded!", state.Status)
		assert.Equal(t, asset.KindImage, app.uploader.CapturedKind)
	})

	t.Run("cv file records name and uses raw", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "file", "CV_2024.pdf", []byte("%PDF"), nil)
		rr := app.upload(t, "/api/admin/cv/file", token, body, ct)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		state := decodeState(t, rr)
		assert.Equal(t, "CV_2024.pdf", state.CV.FileName)
		assert.Equal(t, "CV uploaded!", state.Status)
		assert.Equal(t, asset.KindRaw, app.uploader.CapturedKind)
	})

	t.Run("certificate image for unknown id", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "file", "c.png", []byte("img"), nil)
		rr := app.upload(t, "/api/admin/certificates/missing/image", token, body, ct)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("certificate image", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		rr := app.do(t, http.MethodPost, "/api/admin/certificates", token, nil)
		id := decodeState(t, rr).Certificates[0].ID

		body, ct := multipartBody(t, "file", "c.png", []byte("img"), nil)
		rr = app.upload(t, "/api/admin/certificates/"+id+"/image", token, body, ct)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "https://res.example.com/portfolio/c.png", decodeState(t, rr).Certificates[0].ImageURL)
	})

	t.Run("host failure maps to 502 and status", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)
		app.uploader.ReturnErr = errors.New("timeout")

		body, ct := multipartBody(t, "file", "me.png", []byte("img"), nil)
		rr := app.upload(t, "/api/admin/hero/image", token, body, ct)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		rr = app.do(t, http.MethodGet, "/api/admin/state", token, nil)
		assert.Equal(t, "Upload failed", decodeState(t, rr).Status)
	})

	t.Run("missing file", func(t *testing.T) {
		app := newMemoryApp(t)
		token := app.login(t)

		body, ct := multipartBody(t, "", "", nil, nil)
		rr := app.upload(t, "/api/admin/cv/file", token, body, ct)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
