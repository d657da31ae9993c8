// Package api is the REST client for the receiver's HTTP endpoints.
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
)

// Client talks to the receiver. Every call is a single round trip; nothing
// here retries.
type Client struct {
	base       string
	session    string
	httpClient *http.Client
}

// NewClient creates a client for the receiver at base.
func NewClient(base, session string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:    strings.TrimRight(base, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Client-Session", c.session)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// getJSON performs a GET and decodes the JSON body into out. Non-2xx
// responses are errors.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.request(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: unexpected status code: %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	return nil
}

// postCommand posts a JSON body and decodes a CommandResponse. The receiver
// reports command failures as JSON with a non-success status, often on a 4xx
// code; a decodable body is returned to the caller either way so the
// server-provided message survives.
func (c *Client) postCommand(ctx context.Context, path string, body any) (*CommandResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("POST %s: failed to marshal request: %w", path, err)
	}

	resp, err := c.request(ctx, "POST", path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("POST %s: failed to read response: %w", path, err)
	}

	var cmd CommandResponse
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Status == "" {
		return nil, fmt.Errorf("POST %s: unexpected response (status code %d)", path, resp.StatusCode)
	}

	return &cmd, nil
}

// Users fetches the user directory.
func (c *Client) Users(ctx context.Context) (map[string]UserInfo, error) {
	users := make(map[string]UserInfo)
	if err := c.getJSON(ctx, "/api/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// LightControl sends a light command ("on" or "off") along with the current
// override flag.
func (c *Client) LightControl(ctx context.Context, command string, override bool) (*CommandResponse, error) {
	return c.postCommand(ctx, "/api/light/control", map[string]any{
		"command":  command,
		"override": override,
	})
}

// SetOverride enables or disables the manual override.
func (c *Client) SetOverride(ctx context.Context, enable bool) (*CommandResponse, error) {
	return c.postCommand(ctx, "/api/override", map[string]any{
		"enable": enable,
	})
}

// Stats fetches the receiver's message statistics.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var out StatsResponse
	if err := c.getJSON(ctx, "/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitData fetches the retained message backlog for console backfill.
func (c *Client) InitData(ctx context.Context) (*InitDataResponse, error) {
	var out InitDataResponse
	if err := c.getJSON(ctx, "/init-data", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cleanup asks the receiver to delete old log files. With force, the
// receiver also resets its statistics.
func (c *Client) Cleanup(ctx context.Context, force bool) (*CleanupResponse, error) {
	path := "/cleanup"
	if force {
		path += "?force=true"
	}

	var out CleanupResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("cleanup failed: %s", out.Error)
	}
	return &out, nil
}

// StorageInfo fetches the receiver's disk and log storage metrics.
func (c *Client) StorageInfo(ctx context.Context) (*StorageResponse, error) {
	var out StorageResponse
	if err := c.getJSON(ctx, "/storage", &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("storage info failed: %s", out.Error)
	}
	return &out, nil
}
