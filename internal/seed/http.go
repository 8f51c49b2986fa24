package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient calls the admin API with a bearer token.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// do sends a request and decodes the response into out when the status matches want.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, want int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			return &StatusError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
		}
		return &StatusError{Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError reports an unexpected HTTP status from the service.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.Status, e.Code, e.Message)
}

// checkHealth verifies the service is up.
func (c *HTTPClient) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

func (c *HTTPClient) generateUsers(ctx context.Context, count int) (generateUsersResponse, error) {
	var out generateUsersResponse
	err := c.do(ctx, http.MethodPost, "/admin/users/generate", generateUsersRequest{Count: count}, &out, http.StatusCreated)
	return out, err
}

func (c *HTTPClient) generateMatches(ctx context.Context, count int, useRealUsers bool) (generateMatchesResponse, error) {
	var out generateMatchesResponse
	req := generateMatchesRequest{Count: count, UseRealUsers: useRealUsers}
	err := c.do(ctx, http.MethodPost, "/admin/matches/generate", req, &out, http.StatusCreated)
	return out, err
}

func (c *HTTPClient) leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	var out []Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", limit), nil, &out, http.StatusOK)
	return out, err
}
