package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcao2/truthlens/internal/store"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens(store.NewMemoryStore())

	if tokens.Token() != "" || tokens.Authenticated() {
		t.Error("fresh store should have no token")
	}
	if _, err := tokens.Claims(); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := tokens.SetToken("abc"); err != nil {
		t.Fatal(err)
	}
	if tokens.Token() != "abc" {
		t.Errorf("expected abc, got %q", tokens.Token())
	}
	// Opaque tokens are left for the server to reject.
	if !tokens.Authenticated() {
		t.Error("opaque token should count as authenticated")
	}

	if err := tokens.ClearToken(); err != nil {
		t.Fatal(err)
	}
	if tokens.Token() != "" {
		t.Error("token should be cleared")
	}
}

func TestTokensClaims(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens(store.NewMemoryStore())
	tokens.now = func() time.Time { return now }

	raw := signedToken(t, jwt.MapClaims{
		"sub":   "42",
		"email": "reader@example.com",
		"exp":   now.Add(time.Hour).Unix(),
	})
	if err := tokens.SetToken(raw); err != nil {
		t.Fatal(err)
	}

	claims, err := tokens.Claims()
	if err != nil {
		t.Fatalf("Claims failed: %v", err)
	}
	if claims.Subject != "42" || claims.Email != "reader@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected expiry %v", claims.ExpiresAt)
	}
	if !tokens.Authenticated() {
		t.Error("unexpired token should be authenticated")
	}

	tokens.now = func() time.Time { return now.Add(2 * time.Hour) }
	if tokens.Authenticated() {
		t.Error("expired token should not be authenticated")
	}
}
