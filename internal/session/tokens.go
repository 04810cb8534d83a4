package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcao2/truthlens/internal/store"
)

// KeyToken holds the bearer token
const KeyToken = "token"

// Claims is the unverified payload of the bearer token
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an exp claim that has passed
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Tokens persists the bearer token. It satisfies api.TokenStore.
type Tokens struct {
	store store.Store
	now   func() time.Time
}

// NewTokens creates a token store over s
func NewTokens(s store.Store) *Tokens {
	return &Tokens{store: s, now: time.Now}
}

// Token returns the stored token, or "" when there is none
func (t *Tokens) Token() string {
	data, err := t.store.Get(KeyToken)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetToken stores token
func (t *Tokens) SetToken(token string) error {
	if err := t.store.Set(KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ClearToken erases the token
func (t *Tokens) ClearToken() error {
	if err := t.store.Delete(KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Claims decodes the token payload without checking the signature. The
// signing key lives on the server; this is for display and expiry only.
func (t *Tokens) Claims() (*Claims, error) {
	raw := t.Token()
	if raw == "" {
		return nil, store.ErrNotFound
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	claims := &Claims{}
	claims.Subject, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Authenticated reports whether a token is stored and not known to be expired.
// Tokens that cannot be decoded are left for the server to judge.
func (t *Tokens) Authenticated() bool {
	claims, err := t.Claims()
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		return true
	}
	return !claims.Expired(t.now())
}
