package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
)

// SignupInput carries the registration form. Only Email and Password are
// required by the server.
type SignupInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Username       string `json:"username,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

// Signup creates an account and starts a session for it.
func (c *Client) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/signup", body: in, out: &resp}); err != nil {
		return nil, err
	}
	c.sessionStarted()
	return &resp.User, nil
}

// Login starts a session. Wrong credentials come back as ErrUnauthorized
// without any refresh attempt.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp userEnvelope
	req := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/login", body: req, out: &resp}); err != nil {
		return nil, err
	}
	c.sessionStarted()
	return &resp.User, nil
}

// Me returns the identity behind the current session.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/auth/me", out: &resp, protected: true}); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Refresh rotates the session cookies now instead of waiting for a 401.
// It shares the in-flight refresh with any automatic one.
func (c *Client) Refresh(ctx context.Context) (*models.User, error) {
	v, err, _ := c.refreshes.Do(refreshKey, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	u, _ := v.(*models.User)
	if u == nil {
		return c.Me(ctx)
	}
	return u, nil
}

// Signout revokes the session on the server. The client is signed out
// locally even when the server call fails.
func (c *Client) Signout(ctx context.Context) error {
	err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/signout", protected: true})
	c.sessionEnded()
	return err
}
