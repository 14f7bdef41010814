package ecp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"rokuctl/internal/logging"
	"rokuctl/internal/services"
)

const (
	defaultTimeout    = 3 * time.Second
	defaultRetryDelay = 250 * time.Millisecond
	maxBodyBytes      = 1 << 20
	errorBodySnippet  = 256
)

// Response is a successful ECP reply.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
	Elapsed    time.Duration
}

// Executor runs encoded requests against a device. *Client implements it.
type Executor interface {
	Execute(ctx context.Context, req Request, device Device) (*Response, error)
}

// Client executes ECP requests.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	retryDelay time.Duration
	sleeper    func(context.Context, time.Duration) error
	logger     *slog.Logger
}

var _ Executor = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetryDelay sets the pause before the single retry.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithSleeper overrides how retry pauses are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a Client with a 3s per-attempt timeout.
func NewClient(opts ...Option) *Client {
	client := &Client{
		timeout:    defaultTimeout,
		retryDelay: defaultRetryDelay,
		sleeper:    sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	client.logger = logging.NewComponentLogger(client.logger, "ecp")
	return client
}

// Execute sends req to device. Requests marked RetryOnce are repeated once
// after a connection-level failure; protocol errors and caller cancellation
// are returned immediately.
func (c *Client) Execute(ctx context.Context, req Request, device Device) (*Response, error) {
	target, err := req.URL(device)
	if err != nil {
		return nil, services.Wrap(ErrUnreachable, "ecp", req.Target(), "", err)
	}
	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldDevice, device.Addr),
		logging.String("request", req.Target()),
		logging.String("retry", req.Retry.String()),
	)

	maxAttempts := 1
	if req.Retry == RetryOnce {
		maxAttempts = 2
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		logger.Debug("sending request", logging.Int("attempt", attempt))
		status, body, err := c.roundTrip(ctx, req.Method, target)
		if err == nil {
			elapsed := time.Since(start)
			logger.Debug("request complete", logging.Int("status", status), logging.Duration("elapsed", elapsed))
			return &Response{StatusCode: status, Body: body, Attempts: attempt, Elapsed: elapsed}, nil
		}

		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			protoErr.Method = req.Method
			protoErr.Path = req.Path
			return nil, protoErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", req.Target(), ctxErr)
		}

		marker := classifyTransport(err)
		detail := fmt.Sprintf("device %s, attempt %d of %d", device.Addr, attempt, maxAttempts)
		if attempt >= maxAttempts {
			return nil, services.Wrap(marker, "ecp", req.Target(), detail, err)
		}

		logger.Warn("request failed, retrying once",
			logging.Error(err),
			logging.String("kind", marker.Error()),
			logging.Duration("delay", c.retryDelay),
		)
		if err := c.sleeper(ctx, c.retryDelay); err != nil {
			return nil, fmt.Errorf("%s: %w", req.Target(), err)
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, method, target string) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, nil, &ProtocolError{StatusCode: resp.StatusCode, Body: truncateBody(body, errorBodySnippet)}
	}
	return resp.StatusCode, body, nil
}

// truncateBody cuts body to at most limit bytes without splitting a rune.
func truncateBody(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}

// classifyTransport maps a failed round trip onto ErrTimeout or ErrUnreachable.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnreachable
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
