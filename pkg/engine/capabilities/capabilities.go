// Package capabilities fetches the assistant's self-reported capability
// list from its REST surface, shown to the user before a session starts.
package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	memoriesPath = "/api/v1/self/memories"
	defaultLimit = 50
)

// Capability is one self-reported assistant skill.
type Capability struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Client talks to the assistant's REST surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given HTTP(S) base URL. A nil
// httpClient gets a 10s-timeout default.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

// List fetches up to limit capabilities; limit <= 0 uses the default.
func (c *Client) List(ctx context.Context, limit int) ([]Capability, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, memoriesPath, url.Values{
		"type":  {"capability"},
		"limit": {fmt.Sprintf("%d", limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch capabilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch capabilities: unexpected status %s", resp.Status)
	}

	var payload struct {
		Memories []Capability `json:"memories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode capabilities: %w", err)
	}
	return payload.Memories, nil
}
