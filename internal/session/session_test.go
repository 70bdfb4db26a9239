package session

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/repository/memory"
	"github.com/sakif/portfolio/internal/service"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService("session-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	content := service.NewContentService(memory.New(), logger)
	gate := service.NewSessionGate(content, auth.NewPasswordService(), logger)
	factory := func() *service.Editor { return service.NewEditor(content, gate, nil, logger) }

	return NewStore(tokens, factory, logger)
}

func TestStore_CreateThenLookup(t *testing.T) {
	s := newTestStore(t)

	sess, token, err := s.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, sess.Editor)

	got, err := s.Lookup(token)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	a, _, _ := s.Create()
	b, _, _ := s.Create()

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Editor, b.Editor, "each session gets its own editor state")
	assert.Equal(t, 2, s.Len())
}

func TestStore_EndInvalidatesToken(t *testing.T) {
	s := newTestStore(t)

	sess, token, _ := s.Create()
	s.End(sess.ID)

	_, err := s.Lookup(token)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	assert.Equal(t, 0, s.Len())

	s.End("unknown")
}

func TestStore_ExpiredSessionsRejectedAndSwept(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	_, token, _ := s.Create()

	now = now.Add(2 * time.Hour)
	_, err := s.Lookup(token)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, _, _ = s.Create()
	assert.Equal(t, 1, s.Len(), "expired session should be swept on create")
}

func TestStore_GarbageToken(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Lookup("not-a-token")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestRequireSession(t *testing.T) {
	s := newTestStore(t)
	_, token, _ := s.Create()

	var seen *Session
	h := RequireSession(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/admin/state", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"error":"unauthorized","message":"valid admin session required"}`, rec.Body.String())
			} else {
				assert.NotNil(t, seen)
			}
		})
	}
}
