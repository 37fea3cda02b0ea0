package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/keuthlie/internal/common"
)

// Client talks to one keuthlie server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the server at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type envelope struct {
	Error   int             `json:"error"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload"`
}

// Session is the result of a login or password change.
type Session struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var out struct {
		UUID string `json:"uuid"`
	}
	err := c.post(ctx, "/register/email", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &out)
	return out.UUID, err
}

func (c *Client) Login(ctx context.Context, email, password, service string) (*Session, error) {
	var out Session
	err := c.post(ctx, "/login/email", map[string]string{
		"email":    email,
		"password": password,
		"service":  service,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken returns the identity id the token was issued to.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/verifyToken", map[string]string{"token": token}, &out)
	return out.ID, err
}

func (c *Client) ChangePassword(ctx context.Context, token, password, newPassword string) (*Session, error) {
	var out Session
	err := c.post(ctx, "/password/change", map[string]string{
		"token":       token,
		"password":    password,
		"newPassword": newPassword,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeAll invalidates every token of the identity behind token.
func (c *Client) RevokeAll(ctx context.Context, token string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/revoke", map[string]string{"token": token}, &out)
	return out.ID, err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+common.APIPrefix+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}

	if env.Error != 0 {
		return &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
	}

	if out == nil || len(env.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(env.Payload, out)
}
