// Package session keeps the volatile admin sessions.
//
// A session is created by a successful login and lives only in this
// process. The client holds a signed bearer token naming the session and
// keeps it in page memory, so reloading the admin page, restarting the
// server or logging out all return the admin to the password prompt.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/service"
)

// Session is one authenticated admin tab.
type Session struct {
	ID        string
	Editor    *service.Editor
	CreatedAt time.Time
	ExpiresAt time.Time
}

// EditorFactory builds the working copy for a new session.
type EditorFactory func() *service.Editor

// Store is the in-memory session registry.
type Store struct {
	tokens    *auth.TokenService
	newEditor EditorFactory
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(tokens *auth.TokenService, newEditor EditorFactory, logger *slog.Logger) *Store {
	return &Store{
		tokens:    tokens,
		newEditor: newEditor,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Create registers a new session and returns it with its bearer token.
// Expired sessions are swept on the way.
func (s *Store) Create() (*Session, string, error) {
	id := xid.New().String()
	token, expires, err := s.tokens.Issue(id)
	if err != nil {
		return nil, "", err
	}

	sess := &Session{
		ID:        id,
		Editor:    s.newEditor(),
		CreatedAt: s.now(),
		ExpiresAt: expires,
	}

	s.mu.Lock()
	s.sweepLocked()
	s.sessions[id] = sess
	active := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("admin session started",
		slog.String("session", id),
		slog.Int("active", active),
	)
	return sess, token, nil
}

// Lookup resolves a bearer token to a live session.
func (s *Store) Lookup(token string) (*Session, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized("valid admin session required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || !s.now().Before(sess.ExpiresAt) {
		return nil, apperror.Unauthorized("valid admin session required")
	}
	return sess, nil
}

// End forgets a session. Ending an unknown session is a no-op.
func (s *Store) End(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("admin session ended", slog.String("session", id))
}

// Len reports how many sessions are registered.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by RequireSession.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok && sess != nil
}

// RequireSession rejects requests without a valid "Authorization: Bearer"
// token and otherwise puts the session in the request context.
func RequireSession(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			sess, err := store.Lookup(token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid admin session required"}` + "\n"))
}
