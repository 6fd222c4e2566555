// Package supabase implements port.Store on top of the Supabase
// PostgREST API. Every call goes through the circuit breaker with
// retries; 4xx answers are not retried.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

var _ port.Store = (*Client)(nil)

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	timeout        time.Duration
	logger         *zap.Logger
}

// NewClient creates a Supabase client. timeout bounds one store call
// including its retries; zero leaves it to the caller's context.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		timeout:        timeout,
		logger:         logger,
	}
}

// statusError is a non-2xx PostgREST answer.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

// call runs fn through the breaker and maps what comes out. Domain
// errors pass through; anything else becomes *domain.ErrStore.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := resilience.Call(ctx, c.cb, c.cfg, "supabase", c.timeout, fn)
	if err == nil {
		return nil
	}

	var (
		nf   *domain.ErrNotFound
		cf   *domain.ErrConflict
		val  *domain.ErrValidation
		open *domain.ErrCircuitOpen
		to   *domain.ErrTimeout
	)
	if errors.As(err, &nf) || errors.As(err, &cf) || errors.As(err, &val) || errors.As(err, &open) || errors.As(err, &to) {
		return err
	}
	return &domain.ErrStore{Op: op, Err: err}
}

// do executes an authenticated request to Supabase PostgREST. prefer is
// sent as the Prefer header when set.
func (c *Client) do(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &resilience.Permanent{Err: err}
		}
		body = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &resilience.Permanent{Err: err}
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		serr := &statusError{Status: resp.StatusCode, Body: string(respBody)}
		switch {
		case resp.StatusCode == http.StatusConflict:
			return nil, &resilience.Permanent{Err: &domain.ErrConflict{Message: "record already exists"}}
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, serr
		case resp.StatusCode < 500:
			return nil, &resilience.Permanent{Err: serr}
		}
		return nil, serr
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

// Ping checks that PostgREST answers with the configured keys.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	return c.call(ctx, "ping", func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodGet, "categories?select=id&limit=1", nil, "")
		return err
	})
}
