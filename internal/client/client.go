// Package client talks to the StackIt HTTP API.
//
// Reads are retried with exponential backoff on network failures and non-2xx
// answers. Writes are sent once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stackit/internal/core"
)

const (
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMaxRetries   = 5
	defaultTimeout      = 10 * time.Second
)

// Config tunes the client. Zero values fall back to the defaults above;
// a negative MaxRetries disables retries.
type Config struct {
	BaseURL      string
	HTTPClient   *http.Client
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	Logger       *slog.Logger
}

type Client struct {
	baseURL      string
	http         *http.Client
	initialDelay time.Duration
	maxDelay     time.Duration
	maxRetries   int
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match 404 and 400 answers against the core sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusBadRequest:
		return core.ErrMalformedInput
	default:
		return nil
	}
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: base URL is required")
	}
	c := &Client{
		baseURL:      base,
		http:         cfg.HTTPClient,
		initialDelay: cfg.InitialDelay,
		maxDelay:     cfg.MaxDelay,
		maxRetries:   cfg.MaxRetries,
		logger:       cfg.Logger,
		sleep:        sleepContext,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.initialDelay <= 0 {
		c.initialDelay = DefaultInitialDelay
	}
	if c.maxDelay <= 0 {
		c.maxDelay = DefaultMaxDelay
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

func (c *Client) ListBalances(ctx context.Context) ([]core.MonthlyBalance, error) {
	var out []core.MonthlyBalance
	return out, c.getJSON(ctx, "/monthlybalances", &out)
}

func (c *Client) UpsertBalance(ctx context.Context, month core.Month, balance string) (core.MonthlyBalance, error) {
	amount, err := core.ParseAmount(balance)
	if err != nil {
		return core.MonthlyBalance{}, err
	}
	var out core.MonthlyBalance
	err = c.send(ctx, http.MethodPost, "/monthlybalances", core.MonthlyBalance{Month: month, Balance: amount}, &out)
	return out, err
}

func (c *Client) DeleteBalance(ctx context.Context, id int64) (core.MonthlyBalance, error) {
	var out core.MonthlyBalance
	err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/monthlybalances/%d", id), nil, &out)
	return out, err
}

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var out []core.Goal
	return out, c.getJSON(ctx, "/savinggoals", &out)
}

func (c *Client) CreateGoal(ctx context.Context, label, amount string, due core.Month) (core.Goal, error) {
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.Goal{}, err
	}
	var out core.Goal
	err = c.send(ctx, http.MethodPost, "/savinggoals", core.Goal{Label: label, Amount: value, DueMonth: due}, &out)
	return out, err
}

func (c *Client) DeleteGoal(ctx context.Context, id int64) (core.Goal, error) {
	var out core.Goal
	err := c.send(ctx, http.MethodDelete, fmt.Sprintf("/savinggoals/%d", id), nil, &out)
	return out, err
}

func (c *Client) GoalProgress(ctx context.Context) ([]core.Goal, error) {
	var out []core.Goal
	return out, c.getJSON(ctx, "/goalprogress", &out)
}

// getJSON issues a GET, retrying up to maxRetries times after the first
// attempt. The last error is returned once retries run out.
func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.WarnContext(ctx, "Retrying request",
				"path", path,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return fmt.Errorf("GET %s: %w (last error: %v)", path, err, lastErr)
			}
		}

		lastErr = c.do(ctx, http.MethodGet, path, nil, dst)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("GET %s: %w", path, lastErr)
		}
	}
	return fmt.Errorf("GET %s failed after %d attempts: %w", path, c.maxRetries+1, lastErr)
}

func (c *Client) send(ctx context.Context, method, path string, body, dst any) error {
	if err := c.do(ctx, method, path, body, dst); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// backoff returns the delay before the given retry: initialDelay doubled per
// attempt, capped at maxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
