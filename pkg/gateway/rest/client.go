// Package rest is the HTTP side of the gateway API: gateway discovery, the
// current user, and message creation.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL        = "https://discord.com/api"
	DefaultAPIVersion     = 9
	DefaultLibraryURL     = "https://github.com/gweinbach/russian-roulette"
	DefaultLibraryVersion = "0.1"

	gatewayPath       = "/gateway/bot"
	currentUserPath   = "/users/@me"
	createMessagePath = "/channels/{channelID}/messages"
)

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client issues authenticated REST calls.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// GatewayURL discovers the gateway WebSocket URL and appends the protocol
// version and encoding query string.
func (c *Client) GatewayURL(ctx context.Context, gatewayVersion int) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(gatewayPath)
	if err != nil {
		return "", fmt.Errorf("failed to discover gateway: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("gateway response has no url")
	}

	url := fmt.Sprintf("%s?v=%d&encoding=json", strings.TrimRight(result.URL, "/"), gatewayVersion)
	c.logger.Debug("Discovered gateway", zap.String("url", url))
	return url, nil
}

// CurrentUser returns the user object of the authenticated bot.
func (c *Client) CurrentUser(ctx context.Context) (map[string]any, error) {
	resp, err := c.http.R().SetContext(ctx).Get(currentUserPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	var user map[string]any
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, fmt.Errorf("failed to decode current user: %w", err)
	}
	return user, nil
}

// CreateMessage posts payload to the channel.
func (c *Client) CreateMessage(ctx context.Context, channelID string, payload map[string]any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("channelID", channelID).
		SetBody(payload).
		Post(createMessagePath)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	if resp.IsError() {
		return apiError(resp)
	}

	c.logger.Debug("Created message",
		zap.String("channel", channelID),
		zap.Int("status", resp.StatusCode()))
	return nil
}

func apiError(resp *resty.Response) error {
	return &APIError{
		Method: resp.Request.Method,
		Path:   resp.Request.URL,
		Status: resp.StatusCode(),
		Body:   resp.String(),
	}
}
