// internal/api/client.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running drillboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the server is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Command runs one editor command and returns the raw JSON result.
func (c *Client) Command(command string, args ...string) (json.RawMessage, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(CommandRequest{Command: command, Args: args})
	if err != nil {
		return nil, err
	}
	return c.do(http.MethodPost, "/commands", body)
}

// Import replaces the open drill with a semantic graph or snapshot.
func (c *Client) Import(data []byte) (json.RawMessage, error) {
	return c.do(http.MethodPut, "/document", data)
}

// Document fetches the semantic graph of the open drill.
func (c *Client) Document() ([]byte, error) {
	return c.do(http.MethodGet, "/document", nil)
}

// Snapshot fetches the raw snapshot of the open drill.
func (c *Client) Snapshot() ([]byte, error) {
	return c.do(http.MethodGet, "/snapshot", nil)
}

// Save stores the open drill under name on the server.
func (c *Client) Save(name string) error {
	_, err := c.do(http.MethodPost, "/drills/"+url.PathEscape(name), nil)
	return err
}

// Open loads a stored drill into the server session.
func (c *Client) Open(name string) (json.RawMessage, error) {
	return c.do(http.MethodGet, "/drills/"+url.PathEscape(name), nil)
}

func (c *Client) do(method, path string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}
	return data, nil
}
