package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/wattcast/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Get performs a GET request, authenticated when token is set.
func (c *HTTPClient) Get(ctx context.Context, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// PostForm performs a form POST, authenticated when token is set.
func (c *HTTPClient) PostForm(ctx context.Context, path, token string, fields map[string]string) (*http.Response, error) {
	form := make(url.Values, len(fields))
	for k, v := range fields {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// readJSON decodes and closes the response body.
func readJSON(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// signUp registers user and returns a session token.
func (c *HTTPClient) signUp(ctx context.Context, user string) (string, error) {
	creds := map[string]string{"username": user, "password": userPassword}

	resp, err := c.PostForm(ctx, "/register", "", creds)
	if err != nil {
		return "", fmt.Errorf("register %s: %w", user, err)
	}
	_ = readJSON(resp, nil)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		return "", fmt.Errorf("register %s: status %d", user, resp.StatusCode)
	}

	resp, err = c.PostForm(ctx, "/login", "", creds)
	if err != nil {
		return "", fmt.Errorf("login %s: %w", user, err)
	}
	var sess types.Session
	if err := readJSON(resp, &sess); err != nil {
		return "", fmt.Errorf("login %s: %w", user, err)
	}
	if resp.StatusCode != http.StatusOK || sess.Token == "" {
		return "", fmt.Errorf("login %s: status %d", user, resp.StatusCode)
	}
	return sess.Token, nil
}

// predict submits one request and classifies the answer.
func (c *HTTPClient) predict(ctx context.Context, token string, req Request) (Result, string) {
	res := Result{Request: req}
	resp, err := c.PostForm(ctx, "/predict", token, req.Fields)
	if err != nil {
		return res, outcomeFailed
	}
	res.StatusCode = resp.StatusCode

	switch resp.StatusCode {
	case http.StatusOK:
		if err := readJSON(resp, &res.Prediction); err != nil {
			return res, outcomeFailed
		}
		return res, outcomeOK
	case http.StatusUnprocessableEntity:
		_ = readJSON(resp, nil)
		return res, outcomeRejected
	default:
		_ = readJSON(resp, nil)
		return res, outcomeFailed
	}
}

// history fetches the session user's history.
func (c *HTTPClient) history(ctx context.Context, token string) ([]types.HistoryEntry, error) {
	resp, err := c.Get(ctx, "/history", token)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	var rows []types.HistoryEntry
	if err := readJSON(resp, &rows); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get history: status %d", resp.StatusCode)
	}
	return rows, nil
}
