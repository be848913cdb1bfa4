package api

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

// AuthResult is returned by login and registration
type AuthResult struct {
	Token string     `json:"token"`
	User  *core.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds core.Credentials) (*AuthResult, error) {
	const path = "/auth/login"
	if err := creds.Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, path, err)
	}
	var out AuthResult
	if err := c.doJSON(ctx, http.MethodPost, path, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) (*AuthResult, error) {
	const path = "/auth/register"
	if err := reg.Validate(); err != nil {
		return nil, invalidInput(http.MethodPost, path, err)
	}
	var out AuthResult
	if err := c.doJSON(ctx, http.MethodPost, path, nil, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind the current token
func (c *Client) Me(ctx context.Context) (*core.User, error) {
	var out core.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
