package pureclarity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Client submits feed pages to the PureClarity feed API. Endpoints are
// region-scoped and authenticated with an access key / secret key pair
// carried in each request body; the API is protocol-relative on the
// storefront side, so all URLs in payloads arrive scheme-stripped.
type Client struct {
	httpClient *http.Client
	accessKey  string
	secretKey  string
	baseURL    string
}

// NewClient creates a client for the given region.
func NewClient(accessKey, secretKey, region string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		accessKey:  accessKey,
		secretKey:  secretKey,
		baseURL:    fmt.Sprintf("https://api-%s.pureclarity.net", region),
	}
}

// NewClientWithBaseURL creates a client against an explicit endpoint.
// Used by tests and on-premise installs.
func NewClientWithBaseURL(accessKey, secretKey, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		accessKey:  accessKey,
		secretKey:  secretKey,
		baseURL:    baseURL,
	}
}

type feedRequest struct {
	AccessKey string           `json:"accessKey"`
	SecretKey string           `json:"secretKey"`
	FeedType  string           `json:"feedType"`
	Store     int              `json:"store"`
	Page      int              `json:"page,omitempty"`
	Data      []map[string]any `json:"data,omitempty"`
}

// StartFeed opens a feed of the given type for a store.
func (c *Client) StartFeed(ctx context.Context, feedType string, storeID int) error {
	return c.post(ctx, "/api/feed/start", feedRequest{
		AccessKey: c.accessKey,
		SecretKey: c.secretKey,
		FeedType:  feedType,
		Store:     storeID,
	})
}

// SendPage appends one page of export rows to an open feed.
func (c *Client) SendPage(ctx context.Context, feedType string, storeID, page int, rows []map[string]any) error {
	return c.post(ctx, "/api/feed/append", feedRequest{
		AccessKey: c.accessKey,
		SecretKey: c.secretKey,
		FeedType:  feedType,
		Store:     storeID,
		Page:      page,
		Data:      rows,
	})
}

// EndFeed closes a feed; the remote side swaps it live on close.
func (c *Client) EndFeed(ctx context.Context, feedType string, storeID int) error {
	return c.post(ctx, "/api/feed/close", feedRequest{
		AccessKey: c.accessKey,
		SecretKey: c.secretKey,
		FeedType:  feedType,
		Store:     storeID,
	})
}

func (c *Client) post(ctx context.Context, path string, payload feedRequest) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.doPost(ctx, path, payload)
		if lastErr == nil {
			return nil
		}

		// Only retry on rate limits or server errors
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doPost(ctx context.Context, path string, payload feedRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrInvalidCredentials
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
