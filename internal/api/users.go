// ABOUTME: User management endpoints for the onboarding backend
// ABOUTME: List, create, update and delete account records

package api

import (
	"context"
	"net/http"
)

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users, "failed to fetch users"); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a user account.
func (c *Client) CreateUser(ctx context.Context, u UserCreate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users", u, &user, "failed to create user"); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to the user with the given ID.
func (c *Client) UpdateUser(ctx context.Context, id string, u UserUpdate) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/users/"+id, u, &user, "failed to update user"); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user with the given ID.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil, "failed to delete user")
}
