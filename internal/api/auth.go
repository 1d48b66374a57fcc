package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// ErrMissingToken is returned when a login or register response carries no
// access token.
var ErrMissingToken = errors.New("response has no access_token")

// Credentials for login and registration. Email is only used by Register.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string     `json:"access_token"`
	User        types.User `json:"user"`
}

// Login authenticates and stores the returned token in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*types.User, error) {
	return c.authenticate(ctx, "/auth/login", Credentials{Username: username, Password: password})
}

// Register creates an account and stores the returned token in the session.
func (c *Client) Register(ctx context.Context, username, email, password string) (*types.User, error) {
	return c.authenticate(ctx, "/auth/register", Credentials{Username: username, Email: email, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, creds Credentials) (*types.User, error) {
	var resp authResponse
	if err := c.sendJSON(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrMissingToken
	}
	if err := c.session.SetToken(resp.AccessToken); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	c.cacheUser(resp.User)
	c.log.WithField("user", resp.User.Username).Info("logged in")
	return &resp.User, nil
}

// Profile returns the user the session token belongs to and refreshes the
// cached profile.
func (c *Client) Profile(ctx context.Context) (*types.User, error) {
	var resp struct {
		User types.User `json:"user"`
	}
	if err := c.getJSON(ctx, "/auth/profile", nil, &resp); err != nil {
		return nil, err
	}
	c.cacheUser(resp.User)
	return &resp.User, nil
}

// Logout clears the session locally. The API keeps no server-side session.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) cacheUser(u types.User) {
	pc, ok := c.session.(types.ProfileCache)
	if !ok {
		return
	}
	if err := pc.SetUser(u); err != nil {
		c.log.WithError(err).Warn("caching profile")
	}
}
