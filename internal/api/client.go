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

// Client talks to the daemon HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the daemon listening at bind (host:port).
func NewClient(bind string) *Client {
	base := bind
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListSubscriptions returns every subscription.
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	var resp SubscriptionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/subscriptions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subscriptions, nil
}

// CreateSubscription adds a subscription; the daemon schedules the first sync.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResponse, error) {
	var resp SubscriptionResponse
	if err := c.do(ctx, http.MethodPost, "/api/subscriptions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSubscription edits an existing subscription.
func (c *Client) UpdateSubscription(ctx context.Context, id int64, req SubscriptionRequest) (*Subscription, error) {
	var resp SubscriptionResponse
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Subscription, nil
}

// DeleteSubscription removes a subscription and its channels.
func (c *Client) DeleteSubscription(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/subscriptions/%d", id), nil, nil)
}

// RefreshSubscription triggers a background feed sync.
func (c *Client) RefreshSubscription(ctx context.Context, id int64) (*TaskStartedResponse, error) {
	var resp TaskStartedResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/subscriptions/%d/refresh", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubscriptionChannels lists the channels of one subscription.
func (c *Client) SubscriptionChannels(ctx context.Context, id int64) ([]Channel, error) {
	var resp ChannelListResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/subscriptions/%d/channels", id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// SetChannelEnabled flips a channel's enabled flag.
func (c *Client) SetChannelEnabled(ctx context.Context, id int64, enabled bool) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/enable", id), ChannelEnableRequest{Enabled: enabled}, nil)
}

// StartCheck launches a background deep check over the given channel ids.
func (c *Client) StartCheck(ctx context.Context, channelIDs []int64) (*TaskStartedResponse, error) {
	var resp TaskStartedResponse
	req := CheckRequest{ChannelIDs: channelIDs}
	if err := c.do(ctx, http.MethodPost, "/api/check", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask fetches one task by id.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var resp TaskResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// ListTasks fetches recent tasks, newest first.
func (c *Client) ListTasks(ctx context.Context, limit int) ([]Task, error) {
	path := "/api/tasks"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}
