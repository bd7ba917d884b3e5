package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// StatusError: o webhook respondeu fora da faixa 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook respondeu status %d", e.StatusCode)
}

type Client struct {
	http   *http.Client
	logger *zap.Logger
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "n8n")),
	}
}

func (c *Client) NotifyCapture(ctx context.Context, url string, payload CapturePayload) error {
	return c.post(ctx, url, payload)
}

func (c *Client) NotifyOutreach(ctx context.Context, url string, payload OutreachPayload) error {
	return c.post(ctx, url, payload)
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	if url == "" {
		return fmt.Errorf("webhook url vazia")
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao gerar json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("erro ao criar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LigueLeads/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("webhook inacessível", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("erro na conexão com webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("webhook rejeitou",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
