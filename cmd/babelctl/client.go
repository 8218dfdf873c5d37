package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dkeye/Babel/internal/domain"
)

type health struct {
	Status         string `json:"status"`
	ConnectedUsers int    `json:"connectedUsers"`
	TotalMessages  int    `json:"totalMessages"`
}

// client reads the server's query API.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *client) Health(ctx context.Context) (health, error) {
	var h health
	err := c.getJSON(ctx, "/api/health", nil, &h)
	return h, err
}

func (c *client) Users(ctx context.Context) ([]domain.Connection, error) {
	var users []domain.Connection
	err := c.getJSON(ctx, "/api/users", nil, &users)
	return users, err
}

func (c *client) Messages(ctx context.Context, limit int) ([]domain.Message, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var msgs []domain.Message
	err := c.getJSON(ctx, "/api/messages", q, &msgs)
	return msgs, err
}
