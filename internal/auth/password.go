// Package auth holds the credential primitives behind the admin gate:
// password comparison, session tokens and login throttling.
//
// STORED PASSWORD FORMATS:
// The admin password lives in the content store at settings/security. Older
// deployments wrote it in plaintext, and that stays the default. When
// auth.hash_passwords is on, new passwords are written as bcrypt hashes.
// Matches understands both, so switching the flag never locks anyone out:
//
//	"admin123"                        → compared byte-for-byte
//	"$2a$10$N9qo8uLOickgx2ZMRZoMye…"  → bcrypt.CompareHashAndPassword
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for newly hashed passwords.
const defaultCost = 12

// PasswordService compares candidates against stored passwords and hashes
// new ones. The cost is a field so tests can drop it to bcrypt.MinCost.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with a custom bcrypt
// cost. Tests in other packages pass bcrypt.MinCost (4).
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns a bcrypt hash of plaintext.
// bcrypt ignores everything past 72 bytes, so longer input is rejected.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", errors.New("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether candidate is the password represented by stored.
//
// Plaintext values use subtle.ConstantTimeCompare, so response time does
// not reveal how many leading bytes were right.
func (p *PasswordService) Matches(stored, candidate string) bool {
	if IsHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// IsHash reports whether s looks like a bcrypt hash ($2a$, $2b$ or $2y$).
func IsHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
