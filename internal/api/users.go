package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/geotask/pkg/types"
)

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]types.User, error) {
	var resp struct {
		Users []types.User `json:"users"`
	}
	if err := c.getJSON(ctx, "/users/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id int64) (*types.User, error) {
	var resp struct {
		User *types.User `json:"user"`
	}
	if err := c.getJSON(ctx, "/users/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("user %d: %w", id, types.ErrNotFound)
	}
	return resp.User, nil
}
