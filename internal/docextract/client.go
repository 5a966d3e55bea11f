// Package docextract calls the remote document-extraction service used as a
// second opinion on low-confidence local parses. The service takes raw
// document bytes and returns plain text; everything downstream (strategy
// selection, scoring) is shared with the local path.
package docextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/common"
)

// Config configures the service client.
type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the extraction service over HTTP. A zero URL or API key
// leaves the client permanently unavailable, which the pipeline treats as
// "no second opinion configured".
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client with defaults filled in.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Available reports whether the service is configured.
func (c *Client) Available() bool {
	return c.cfg.URL != "" && c.cfg.APIKey != ""
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Extract sends the document and returns the service's text. Transient
// failures are retried with short exponential backoff; a client-side
// rejection (4xx) is not.
func (c *Client) Extract(ctx context.Context, doc []byte) (string, error) {
	if !c.Available() {
		return "", common.ErrExternalUnavailable
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		var opErr error
		text, opErr = c.extractOnce(ctx, doc)
		return opErr
	}, common.RetryOptions{
		MaxAttempts:  c.cfg.MaxRetries,
		InitialDelay: 500 * time.Millisecond,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrExternalUnavailable, err)
	}
	return text, nil
}

func (c *Client) extractOnce(ctx context.Context, doc []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(doc))
	if err != nil {
		return "", &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("extraction service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("extraction service rejected request with %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
			Retryable: false,
		}
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode extraction response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("extraction service error: %s", parsed.Error)
	}
	if parsed.Text == "" {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("extraction service returned no text"),
			Retryable: false,
		}
	}
	c.logger.Debug("external extraction succeeded", "textLen", len(parsed.Text))
	return parsed.Text, nil
}
