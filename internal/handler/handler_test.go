package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/portfolio/internal/asset"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/repository/memory"
	"github.com/sakif/portfolio/internal/service"
	"github.com/sakif/portfolio/internal/session"
	"github.com/sakif/portfolio/web"
)

// MockUploader records the last call and returns a canned result.
type MockUploader struct {
	CapturedInfo asset.FileInfo
	CapturedKind asset.Kind
	CapturedBody []byte
	ReturnErr    error
}

func (m *MockUploader) Upload(_ context.Context, file io.Reader, info asset.FileInfo, kind asset.Kind) (*asset.Result, error) {
	m.CapturedInfo = info
	m.CapturedKind = kind
	m.CapturedBody, _ = io.ReadAll(file)
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return &asset.Result{
		SecureURL:    "https://res.example.com/portfolio/" + info.Name,
		PublicID:     "portfolio/" + info.Name,
		Format:       "png",
		ResourceType: string(kind),
		Bytes:        int64(len(m.CapturedBody)),
	}, nil
}

// brokenStore fails every call, for "Connection error" paths.
type brokenStore struct{ repository.ContentStore }

var errDown = errors.New("store down")

func (brokenStore) Get(context.Context, string, string) (*repository.Document, error) {
	return nil, errDown
}
func (brokenStore) List(context.Context, string) ([]repository.Document, error) { return nil, errDown }

type testApp struct {
	store    repository.ContentStore
	content  *service.ContentService
	sessions *session.Store
	uploader *MockUploader
	router   http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestApp(t *testing.T, store repository.ContentStore, limiter *auth.LoginLimiter) *testApp {
	t.Helper()
	logger := testLogger()

	content := service.NewContentService(store, logger)
	gate := service.NewSessionGate(content, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	up := &MockUploader{}

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	sessions := session.NewStore(tokens, func() *service.Editor {
		return service.NewEditor(content, gate, up, logger)
	}, logger)

	templates := web.Templates("")
	public, err := handler.NewPublicHandler(content, templates, logger)
	require.NoError(t, err)
	admin, err := handler.NewAdminHandler(gate, sessions, limiter, templates, logger)
	require.NoError(t, err)
	uploads := handler.NewUploadHandler(up, logger)

	r := chi.NewRouter()
	r.Get("/", public.HandleIndex)
	r.Get("/admin", admin.HandlePage)
	r.Get("/api/hero", public.HandleHero)
	r.Get("/api/certificates", public.HandleCertificates)
	r.Get("/api/experience", public.HandleExperience)
	r.Get("/api/cv", public.HandleCV)
	r.Get("/api/footer", public.HandleFooter)
	r.Post("/api/admin/login", admin.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(session.RequireSession(sessions))
		r.Post("/api/upload", uploads.HandleUpload)
		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/logout", admin.HandleLogout)
			r.Get("/state", admin.HandleState)
			r.Put("/hero", admin.HandleSaveHero)
			r.Put("/footer", admin.HandleSaveFooter)
			r.Put("/cv", admin.HandleSaveCV)
			r.Put("/security", admin.HandleChangePassword)
			r.Post("/hero/image", admin.HandleHeroImage)
			r.Post("/certificates/{id}/image", admin.HandleCertificateImage)
			r.Post("/cv/file", admin.HandleCVFile)
			r.Route("/certificates", admin.ItemRoutes(service.KindCertificate))
			r.Route("/experience", admin.ItemRoutes(service.KindExperience))
		})
	})

	return &testApp{store: store, content: content, sessions: sessions, uploader: up, router: r}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "admin123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testApp) upload(t *testing.T, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) service.EditorState {
	t.Helper()
	var s service.EditorState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return s
}

func newMemoryApp(t *testing.T) *testApp {
	return newTestApp(t, memory.New(), nil)
}
