// Package client is the Go client for the task workflow dashboard gateway:
// typed REST access, a view cache that notification events invalidate, and a
// reconnecting WebSocket notification listener.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/domain"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the gateway base URL (e.g. "http://localhost:8001").
	BaseURL string

	// AdminToken is sent as X-Admin-Token when set.
	AdminToken string

	// RequestTimeout is the per-request timeout for ordinary calls.
	RequestTimeout time.Duration

	// LongTimeout is used for the AI-agent endpoints (fix, timesheet),
	// which routinely run for minutes.
	LongTimeout time.Duration

	// ReconnectInterval is the flat delay between notification reconnect
	// attempts.
	ReconnectInterval time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "http://localhost:8001",
		RequestTimeout:    30 * time.Second,
		LongTimeout:       180 * time.Second,
		ReconnectInterval: 3 * time.Second,
	}
}

// APIError is a non-2xx gateway response. A local timeout is reported as a
// synthesized 408 so callers have a single error shape to branch on.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsTimeout reports whether the error is a request timeout, local or remote.
func (e *APIError) IsTimeout() bool {
	return e.Status == fiber.StatusRequestTimeout
}

// Client talks to the dashboard gateway.
type Client struct {
	config *Config
	agent  *fiber.Client

	cache   *Cache
	pending *PendingActions
}

// New creates a gateway client. A nil config uses defaults.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.LongTimeout <= 0 {
		config.LongTimeout = 180 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:  config,
		agent:   fiber.AcquireClient(),
		cache:   NewCache(),
		pending: NewPendingActions(),
	}
}

// Cache returns the client's view cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Pending returns the per-task pending action tracker.
func (c *Client) Pending() *PendingActions {
	return c.pending
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.config
}

func (c *Client) url(path string) string {
	return c.config.BaseURL + path
}

func (c *Client) prepare(req *fiber.Agent, timeout time.Duration) {
	req.Timeout(timeout)
	if c.config.AdminToken != "" {
		req.Set("X-Admin-Token", c.config.AdminToken)
	}
}

// do executes the request and decodes a 2xx body into out. Transport errors
// containing a timeout are normalized to a 408 APIError.
func (c *Client) do(req *fiber.Agent, timeout time.Duration, out interface{}) error {
	c.prepare(req, timeout)

	statusCode, body, errs := req.Bytes()
	if len(errs) > 0 {
		err := errs[0]
		if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
			return &APIError{Status: fiber.StatusRequestTimeout, Message: "request timed out"}
		}
		return fmt.Errorf("request failed: %w", err)
	}

	if statusCode < 200 || statusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("unexpected status %d", statusCode)
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{Status: statusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(path string, out interface{}) error {
	return c.do(c.agent.Get(c.url(path)), c.config.RequestTimeout, out)
}

func (c *Client) post(path string, payload, out interface{}) error {
	return c.postTimeout(path, payload, out, c.config.RequestTimeout)
}

func (c *Client) postTimeout(path string, payload, out interface{}, timeout time.Duration) error {
	req := c.agent.Post(c.url(path))
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Body(body)
		req.Set("Content-Type", "application/json")
	}
	return c.do(req, timeout, out)
}

func (c *Client) delete(path string, out interface{}) error {
	return c.do(c.agent.Delete(c.url(path)), c.config.RequestTimeout, out)
}

// Health checks gateway liveness.
func (c *Client) Health() error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

// executorStatusWire tolerates both names the gateway and older runner
// builds use for the running flag.
type executorStatusWire struct {
	domain.ExecutorStatus
	Running *bool `json:"running"`
}

func (w *executorStatusWire) normalize() *domain.ExecutorStatus {
	status := w.ExecutorStatus
	if w.Running != nil {
		status.IsRunning = status.IsRunning || *w.Running
	}
	return &status
}
