// Package openai talks to an OpenAI-compatible API for transaction
// categorization and for reading receipts, voice notes and chat text.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("openai")

// Defaults used when the config leaves them empty.
const (
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultModel         = "gpt-4o-mini"
	DefaultAudioModel    = "whisper-1"
	maxResponseBodyBytes = 1 << 20
)

// Client is a small chat-completions and transcription client guarded by
// a circuit breaker. A bulkhead caps the calls in flight at
// cfg.MaxConcurrency; zero leaves them unbounded.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	audioModel string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	AudioModel string
	Timeout    time.Duration
}

// NewClient creates a Client.
func NewClient(httpClient *http.Client, opts Options, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.AudioModel == "" {
		opts.AudioModel = DefaultAudioModel
	}
	var bulkhead *resilience.Bulkhead
	if cfg.MaxConcurrency > 0 {
		bulkhead = resilience.NewBulkhead(cfg.MaxConcurrency)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		audioModel: opts.AudioModel,
		cb:         cb,
		bulkhead:   bulkhead,
		cfg:        cfg,
		timeout:    opts.Timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// --- wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// statusError is a non-2xx API answer.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai returned status %d: %s", e.Status, e.Body)
}

// completeJSON sends messages in JSON mode and returns the content of the
// first choice.
func (c *Client) completeJSON(ctx context.Context, op string, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	var content string
	err = c.call(ctx, op, func(ctx context.Context) error {
		body, err := c.post(ctx, "/chat/completions", "application/json", payload)
		if err != nil {
			return err
		}
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &resilience.Permanent{Err: fmt.Errorf("decode completion: %w", err)}
		}
		if len(resp.Choices) == 0 {
			return &resilience.Permanent{Err: errors.New("completion has no choices")}
		}
		if c.metrics != nil {
			c.metrics.RecordTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

// transcribe uploads audio as multipart form data and returns the text.
func (c *Client) transcribe(ctx context.Context, m domain.Media) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("model", c.audioModel); err != nil {
		return "", err
	}
	filename := m.Filename
	if filename == "" {
		filename = "voice.ogg"
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(m.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	payload := buf.Bytes()

	var text string
	err = c.call(ctx, "transcribe", func(ctx context.Context) error {
		body, err := c.post(ctx, "/audio/transcriptions", w.FormDataContentType(), payload)
		if err != nil {
			return err
		}
		var resp transcriptionResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &resilience.Permanent{Err: fmt.Errorf("decode transcription: %w", err)}
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	return text, err
}

// call wraps fn with the breaker, retries and timeout. Timeouts and an
// open breaker keep their domain types; the rest become
// *domain.ErrExternalService.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return &domain.ErrTimeout{Operation: "openai/" + op}
			}
			return err
		}
		defer c.bulkhead.Release()
	}

	err := resilience.Call(ctx, c.cb, c.cfg, "openai", c.timeout, fn)
	if err == nil {
		return nil
	}
	var (
		open *domain.ErrCircuitOpen
		to   *domain.ErrTimeout
	)
	if errors.As(err, &open) || errors.As(err, &to) {
		return err
	}
	return &domain.ErrExternalService{Service: "openai/" + op, Err: err}
}

func (c *Client) post(ctx context.Context, path, contentType string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &resilience.Permanent{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("openai: request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("openai: non-2xx response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		serr := &statusError{Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, &resilience.Permanent{Err: serr}
		}
		return nil, serr
	}
	return body, nil
}
