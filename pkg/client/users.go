package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jason-s-yu/mau/pkg/types"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (string, error) {
	var resp types.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", "", creds, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates an account and returns a token for it.
func (c *Client) Register(ctx context.Context, creds types.Credentials) (string, error) {
	var resp types.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/users", "", creds, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Me(ctx context.Context, token string) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &u)
	return u, err
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update types.ProfileUpdate) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPut, "/users", token, update, &u)
	return u, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, change types.PasswordChange) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/users/change-password", token, change, &u)
	return u, err
}

// User fetches the public profile of username.
func (c *Client) User(ctx context.Context, username string) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(username), "", nil, &u)
	return u, err
}

func (c *Client) Challenges(ctx context.Context, token string) ([]types.Challenge, error) {
	var out []types.Challenge
	err := c.do(ctx, http.MethodGet, "/users/me/challenges", token, nil, &out)
	return out, err
}
