package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Login exchanges credentials for a bearer token and stores it.
// A rejected password is reported as ErrInvalidCredentials and does not
// touch any existing session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	var tok TokenResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds}, &tok)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, err.Error())
		}
		return nil, err
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil, fmt.Errorf("%w: no access token", ErrMalformedResponse)
	}

	if c.tokens != nil {
		if err := c.tokens.SetToken(tok.AccessToken); err != nil {
			return nil, fmt.Errorf("failed to store token: %w", err)
		}
	}
	return &tok, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: creds}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the profile of the logged-in user
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout erases the stored token. There is no server-side session.
func (c *Client) Logout() error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.ClearToken()
}
