// Package api is a thin HTTP client for the authwall server's /api/v1
// surface. Transport failures and HTTP error statuses are mapped onto the
// shared sentinel errors so callers can branch on errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authwall/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// TokenPair is the token pair returned by login and refresh.
type TokenPair struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

// User mirrors the server's user representation.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// RegisterResult bundles the created user with its initial token pair.
type RegisterResult struct {
	User         User   `json:"user"`
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

type refreshRequest struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
	Fingerprint  string `json:"fingerprint"`
}

type confirmRequest struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
}

func (c *Client) Register(ctx context.Context, name, email, password, fingerprint string) (*RegisterResult, error) {
	var result RegisterResult
	req := registerRequest{Name: name, Email: email, Password: password, Fingerprint: fingerprint}
	if err := c.do(ctx, http.MethodPost, "/api/v1/user", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, email, password, fingerprint string) (*TokenPair, error) {
	var pair TokenPair
	req := loginRequest{Email: email, Password: password, Fingerprint: fingerprint}
	if err := c.do(ctx, http.MethodPost, "/api/v1/token", req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) Refresh(ctx context.Context, authToken, refreshToken, fingerprint string) (*TokenPair, error) {
	var pair TokenPair
	req := refreshRequest{AuthToken: authToken, RefreshToken: refreshToken, Fingerprint: fingerprint}
	if err := c.do(ctx, http.MethodPost, "/api/v1/refresh", req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *Client) ConfirmEmail(ctx context.Context, userID, secret string) error {
	req := confirmRequest{UserID: userID, Secret: secret}
	return c.do(ctx, http.MethodPatch, "/api/v1/confirm", req, nil)
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/v1/user/"+id, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusToError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func statusToError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusConflict:
		return common.ErrorAlreadyExists
	case http.StatusForbidden:
		return common.ErrorAccessDenied
	case http.StatusNotFound:
		return common.ErrorNotFound
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
