// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loyaltylite/internal/validation"
)

// SubscriptionAPI is the event subscription API surface the reconciler
// needs. Both Client and CircuitBreakerClient implement it.
//
// Subscribe and Unsubscribe return the HTTP status with a nil error whenever
// the API answered; err is reserved for transport failures.
type SubscriptionAPI interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (int, error)
	Unsubscribe(ctx context.Context, id string) (int, error)
	List(ctx context.Context) ([]Subscription, error)
}

var _ SubscriptionAPI = (*Client)(nil)

// SubscribeRequest is the body of a create-subscription call.
type SubscribeRequest struct {
	ObjCode   string `json:"objCode" validate:"required,objcode"`
	ObjID     string `json:"objId,omitempty"`
	EventType string `json:"eventType" validate:"required,oneof=CREATE UPDATE DELETE"`
	URL       string `json:"url" validate:"required,url"`
	AuthToken string `json:"authToken" validate:"required"`
}

// Subscription is one registered subscription as returned by the list call.
type Subscription struct {
	ID        string `json:"id"`
	ObjCode   string `json:"objCode"`
	ObjID     string `json:"objId,omitempty"`
	EventType string `json:"eventType"`
	URL       string `json:"url"`
}

// Pair returns the (objCode, eventType) the subscription covers.
func (s Subscription) Pair() Pair {
	return Pair{ObjCode: s.ObjCode, EventType: s.EventType}
}

// Client talks to the Workfront event subscription API.
type Client struct {
	subscriptionsURL string
	apiKey           string
	httpClient       *http.Client
}

// NewClient creates a subscription API client.
//
// Parameters:
//   - subscriptionsURL: e.g. https://acme.my.workfront.com/attask/eventsubscription/api/v1/subscriptions
//   - apiKey: sent verbatim as the Authorization header
//   - timeout: per-request timeout (30s when zero)
func NewClient(subscriptionsURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		subscriptionsURL: strings.TrimSuffix(subscriptionsURL, "/"),
		apiKey:           apiKey,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// Subscribe registers a subscription.
func (c *Client) Subscribe(ctx context.Context, req SubscribeRequest) (int, error) {
	if err := validation.ValidateErr(req); err != nil {
		return 0, fmt.Errorf("invalid subscribe request: %w", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("encode subscribe request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.subscriptionsURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("workfront subscribe request failed: %w", err)
	}
	drainAndClose(resp)
	return resp.StatusCode, nil
}

// Unsubscribe deletes the subscription with the given id.
func (c *Client) Unsubscribe(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("subscription id is required")
	}
	resp, err := c.doRequest(ctx, http.MethodDelete, c.subscriptionsURL+"/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, fmt.Errorf("workfront unsubscribe request failed: %w", err)
	}
	drainAndClose(resp)
	return resp.StatusCode, nil
}

// List returns every subscription registered with the API key.
func (c *Client) List(ctx context.Context) ([]Subscription, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.subscriptionsURL+"/list", nil)
	if err != nil {
		return nil, fmt.Errorf("workfront list request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("workfront list returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("workfront list returned status %d: %s", resp.StatusCode, string(body))
	}

	var subs []Subscription
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to decode workfront subscriptions: %w", err)
	}
	return subs, nil
}

func (c *Client) doRequest(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
