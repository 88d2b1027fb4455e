// Package capclient calls capabilities served by a remote dispute service.
package capclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/correlation"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"

	"github.com/google/go-querystring/query"
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
}

func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.25,
	}
}

func New(cfg Config) *Client {
	retryCfg := DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retryCfg.MaxAttempts = cfg.RetryAttempts
		retryCfg.BaseDelay = cfg.RetryBaseDelay
		retryCfg.MaxDelay = cfg.RetryMaxDelay
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryCfg:   retryCfg,
	}
}

// withRetry retries fn while the server reports itself unavailable.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, c.retryCfg, func(err error) bool {
		return errors.Is(err, ErrServiceUnavailable)
	}, func(int) error {
		return fn()
	})
}

// Result mirrors the server's capability result with Data left undecoded.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Kind    string          `json:"error,omitempty"`
}

type CapabilityInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type ListCasesOptions struct {
	Limit int `url:"limit,omitempty"`
}

type ActivityOptions struct {
	Limit  int    `url:"limit,omitempty"`
	Level  string `url:"level,omitempty"`
	Source string `url:"source,omitempty"`
}

func (c *Client) ListCapabilities(ctx context.Context) ([]CapabilityInfo, error) {
	var out struct {
		Capabilities []CapabilityInfo `json:"capabilities"`
	}
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "/capabilities", nil, &out)
	})
	return out.Capabilities, err
}

// Invoke calls a capability. A failed capability is a Result with
// Success=false, not an error.
func (c *Client) Invoke(ctx context.Context, name string, args any) (Result, error) {
	var res Result
	err := c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodPost, "/capabilities/"+url.PathEscape(name), args, &res)
	})
	return res, err
}

func (c *Client) ListCustomerCases(ctx context.Context, customerID string, opts ListCasesOptions) (Result, error) {
	path, err := withQuery("/customers/"+url.PathEscape(customerID)+"/cases", opts)
	if err != nil {
		return Result{}, err
	}
	var res Result
	err = c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, &res)
	})
	return res, err
}

func (c *Client) Activity(ctx context.Context, opts ActivityOptions) (json.RawMessage, error) {
	path, err := withQuery("/activity", opts)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = c.withRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, &out)
	})
	return out, err
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func withQuery(path string, opts any) (string, error) {
	v, err := query.Values(opts)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	if len(v) == 0 {
		return path, nil
	}
	return path + "?" + v.Encode(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := correlation.FromContext(ctx); id != "" {
		req.Header.Set(correlation.HeaderName, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d, body: %s", ErrServiceUnavailable, resp.StatusCode, raw)
	}

	// Capability failures come back as 4xx with a Result body.
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrUnexpectedResponse, resp.StatusCode, err)
	}
	return nil
}
