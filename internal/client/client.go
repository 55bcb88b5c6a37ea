// Package client wraps the device-style HTTP API a published virtual miner
// serves, so fleet tooling (and the emulator's own tests) can talk to a miner
// the same way they would talk to real hardware.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 5 * time.Second

// Client wraps the HTTP API of a single miner endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option mutates the client during construction.
type Option func(*Client)

// WithHTTPClient allows configuring a custom http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithBaseURL overrides the derived base URL (handy for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// NewClient builds a client for the supplied miner address.
func NewClient(addr string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("miner address is required")
	}

	client := &Client{}

	for _, opt := range opts {
		opt(client)
	}

	if client.baseURL == "" {
		baseURL, err := deriveBaseURL(addr)
		if err != nil {
			return nil, err
		}
		client.baseURL = baseURL
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Timeout: defaultRequestTimeout,
		}
	}

	return client, nil
}

// SystemInfo fetches the device info payload.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	err := c.do(ctx, http.MethodGet, "/api/system/info", nil, &info)
	return info, err
}

// ApplyConfig PATCHes a configuration change onto the miner. The device
// answers 200 regardless of which keys were recognised, like real firmware.
func (c *Client) ApplyConfig(ctx context.Context, patch map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/api/system", patch, nil)
}

// Restart reboots the miner's firmware state.
func (c *Client) Restart(ctx context.Context) (RestartResult, error) {
	var result RestartResult
	err := c.do(ctx, http.MethodPost, "/api/system/restart", nil, &result)
	return result, err
}

// Healthz probes the miner's liveness endpoint.
func (c *Client) Healthz(ctx context.Context) (Health, error) {
	var health Health
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &health)
	return health, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	if c == nil {
		return fmt.Errorf("nil client")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpoint, err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("miner %s %s: %d %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	// Some endpoints answer 200 with an empty body.
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return nil
}

func deriveBaseURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("address is empty")
	}

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse miner address %q: %w", addr, err)
	}

	u.RawQuery = ""
	u.Fragment = ""

	return strings.TrimRight(u.String(), "/"), nil
}
