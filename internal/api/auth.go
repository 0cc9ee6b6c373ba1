// ABOUTME: Authentication endpoint for the onboarding backend
// ABOUTME: Exchanges credentials for a user record and optional bearer token

package api

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for the authenticated user record. The
// backend may also issue a bearer token for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		loginRequest{Email: email, Password: password}, &resp, "login failed")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
