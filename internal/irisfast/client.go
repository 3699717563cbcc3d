package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeaderProvider supplies per-request auth headers.
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the Iris HTTP API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iris %s %s: status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusTooManyRequests,
		fasthttp.StatusInternalServerError,
		fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable,
		fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	timeout  time.Duration
	attempts int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// WithRetry sets the total number of attempts for idempotent-safe calls.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 64,
		},
		logger:   zap.NewNop(),
		timeout:  10 * time.Second,
		attempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.call(ctx, fasthttp.MethodGet, "/config", nil, &cfg, 1); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) Decrypt(ctx context.Context, data string) (string, error) {
	var resp DecryptResponse
	if err := c.call(ctx, fasthttp.MethodPost, "/decrypt", DecryptRequest{Data: data}, &resp, c.attempts); err != nil {
		return "", err
	}
	return resp.Decrypted, nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.Reply(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.Reply(ctx, ImageReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

// Reply posts to /reply, retrying transport failures and temporary statuses.
func (c *Client) Reply(ctx context.Context, req ReplyRequest) error {
	return c.call(ctx, fasthttp.MethodPost, "/reply", req, nil, c.attempts)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, attempts int) error {
	var body []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		body = raw
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.once(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return err
		}
		if attempt == attempts {
			break
		}
		c.logger.Debug("iris_retry", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
		if waitErr := sleepCtx(ctx, backoff(attempt)); waitErr != nil {
			return err
		}
	}
	return err
}

func (c *Client) once(ctx context.Context, method, path string, body []byte, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("iris %s %s: %w", method, path, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		text := string(resp.Body())
		if len(text) > 512 {
			text = text[:512]
		}
		return &APIError{Method: method, Path: path, Status: status, Body: text}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// deadline is the earlier of ctx's deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	own := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff doubles from 100ms and caps at 3.2s.
func backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return (100 * time.Millisecond) << (attempt - 1)
}
