package service

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
)

// MinPasswordLength is the shortest admin password ChangePassword accepts.
const MinPasswordLength = 6

// SessionGate decides whether a candidate password opens the admin page.
//
// The secret is the SecuritySetting document when it exists, otherwise the
// factory default. The gate itself is stateless: what happens after a
// successful Authenticate (creating a session) is up to the caller.
type SessionGate struct {
	security        *Singleton[model.SecuritySetting]
	passwords       *auth.PasswordService
	defaultPassword string
	hashOnChange    bool
	logger          *slog.Logger
}

type GateOption func(*SessionGate)

// WithDefaultPassword replaces "admin123" as the password accepted while no
// SecuritySetting exists.
func WithDefaultPassword(p string) GateOption {
	return func(g *SessionGate) {
		if p != "" {
			g.defaultPassword = p
		}
	}
}

// WithHashedPasswords makes ChangePassword store bcrypt hashes.
func WithHashedPasswords(on bool) GateOption {
	return func(g *SessionGate) { g.hashOnChange = on }
}

func NewSessionGate(content *ContentService, passwords *auth.PasswordService, logger *slog.Logger, opts ...GateOption) *SessionGate {
	g := &SessionGate{
		security:        content.Security,
		passwords:       passwords,
		defaultPassword: model.DefaultAdminPassword,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate returns nil when candidate is the current admin password,
// apperror.ErrIncorrectPassword when it is not, and apperror.ErrConnection
// when the stored setting cannot be read.
func (g *SessionGate) Authenticate(ctx context.Context, candidate string) error {
	setting, found, err := g.security.Load(ctx)
	if err != nil {
		g.logger.Error("login: reading security setting",
			slog.String("error", err.Error()),
		)
		return apperror.Connection(err)
	}

	secret := g.defaultPassword
	if found {
		secret = setting.Password
	}

	if !g.passwords.Matches(secret, candidate) {
		g.logger.Info("login rejected")
		return apperror.IncorrectPassword()
	}

	g.logger.Info("login accepted", slog.Bool("default_password", !found))
	return nil
}

// ValidateNewPassword applies the change-password rules without touching
// the store.
func ValidateNewPassword(newPassword, confirm string) error {
	if newPassword != confirm {
		return apperror.ValidationFailed("confirmPassword", "Passwords do not match!")
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("newPassword", "Password too short (min 6 chars)")
	}
	return nil
}

// ChangePassword overwrites the SecuritySetting. Existing sessions stay
// valid; only future logins need the new password.
func (g *SessionGate) ChangePassword(ctx context.Context, newPassword, confirm string) error {
	if err := ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}

	stored := newPassword
	if g.hashOnChange {
		hashed, err := g.passwords.Hash(newPassword)
		if err != nil {
			return apperror.ValidationFailed("newPassword", "Password too long")
		}
		stored = hashed
	}

	if err := g.security.Save(ctx, model.SecuritySetting{Password: stored}); err != nil {
		return apperror.Connection(err)
	}

	g.logger.Info("admin password changed", slog.Bool("hashed", g.hashOnChange))
	return nil
}
