package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates an account on the hosted API. The password buffer is the
// caller's to wipe.
func (c *Client) Register(ctx context.Context, email string, password []byte) error {
	_, err := c.postCredentials(ctx, "/v1/auth/register", email, password)
	return err
}

// Login exchanges credentials for a bearer token. The caller persists the
// token; this client does not.
func (c *Client) Login(ctx context.Context, email string, password []byte) (string, error) {
	return c.postCredentials(ctx, "/v1/auth/login", email, password)
}

// postCredentials is like doJSON but unauthenticated: the auth endpoints are
// the only ones reached without a bearer token.
func (c *Client) postCredentials(ctx context.Context, path, email string, password []byte) (string, error) {
	data, err := json.Marshal(credentialsRequest{Email: email, Password: string(password)})
	if err != nil {
		return "", fmt.Errorf("error encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling remote api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("remote api POST %s: unexpected status %d: %s", path, resp.StatusCode, snippet)
	}

	// register replies with an empty body
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if len(payload) == 0 {
		return "", nil
	}

	var tok tokenResponse
	if err := json.Unmarshal(payload, &tok); err != nil {
		return "", fmt.Errorf("error decoding response body: %w", err)
	}
	return tok.Token, nil
}
