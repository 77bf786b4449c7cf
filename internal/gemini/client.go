// Package gemini speaks the Generative Language generateContent REST contract.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gemini-relay/internal/shared"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi/transport"
)

// Content is one turn of the conversation sent upstream.
type Content struct {
	Role  string          `json:"role,omitempty"`
	Parts json.RawMessage `json:"parts"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateContentRequest is the vendor request body. Parts are kept raw so
// they reach the vendor exactly as the caller sent them.
type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Request is one attempt against one model.
type Request struct {
	Model  string
	APIKey string
	Parts  json.RawMessage
}

// Result is the status and undecoded body of one attempt.
type Result struct {
	StatusCode int
	Body       string
}

func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Generator sends one generation attempt. A non-nil error means the call
// produced no HTTP status at all.
type Generator interface {
	GenerateContent(ctx context.Context, req Request) (*Result, error)
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

type Client struct {
	cfg  Config
	base http.RoundTripper
	log  *zap.SugaredLogger
}

func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = shared.DefaultGeminiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = shared.DefaultUpstreamTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: shared.DefaultDialTimeout,
		}).DialContext,
		TLSHandshakeTimeout: shared.DefaultDialTimeout,
		DisableKeepAlives:   false,
	}
	return &Client{cfg: cfg, base: tr, log: log}
}

func (c *Client) endpoint(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(model))
}

// GenerateContent issues a single POST for req.Model. The attempt is bounded
// by the configured timeout and is not tied to the inbound request, so a
// caller disconnect lets the call finish.
func (c *Client) GenerateContent(ctx context.Context, req Request) (*Result, error) {
	body, err := c.encode(req.Parts)
	if err != nil {
		return nil, fmt.Errorf("failed encoding request: %w", err)
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	r, err := http.NewRequestWithContext(rctx, http.MethodPost, c.endpoint(req.Model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed building request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")

	// The key travels as the "key" query parameter.
	httpClient := &http.Client{Transport: &transport.APIKey{Key: req.APIKey, Transport: c.base}}
	res, err := httpClient.Do(r)
	if err != nil {
		return nil, errors.Join(shared.ErrUpstreamTransport, redactKey(err, req.APIKey))
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.log.Warnw("Failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Join(shared.ErrReadingResponse, redactKey(err, req.APIKey))
	}
	return &Result{StatusCode: res.StatusCode, Body: string(raw)}, nil
}

// encode builds the request body without HTML escaping, so parts reach the
// vendor as sent.
func (c *Client) encode(parts json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: parts}},
		GenerationConfig: GenerationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// redactKey keeps the credential out of error text, since *url.Error embeds
// the full request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
