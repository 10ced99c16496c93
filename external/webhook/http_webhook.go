package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sunny-bot/sunny/internal/webhook"
)

const (
	requestTimeout   = 10 * time.Second
	userAgent        = "sunny-bot-webhook/1"
	maxErrorBodySize = 512
)

type HTTPSender struct {
	url    string
	client *http.Client
}

func NewHTTPSender(url string) webhook.Sender {
	return &HTTPSender{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (s *HTTPSender) SendSessionEnded(ctx context.Context, payload webhook.SessionEndedPayload) error {
	if payload.DurationSeconds == 0 && payload.EndedAt.After(payload.StartedAt) {
		payload.DurationSeconds = int64(payload.EndedAt.Sub(payload.StartedAt).Seconds())
	}
	return s.post(ctx, webhook.Envelope{Event: webhook.EventSessionEnded, Data: payload})
}

// post is a no-op without a configured URL.
func (s *HTTPSender) post(ctx context.Context, envelope webhook.Envelope) error {
	if s.url == "" {
		return nil
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode %s webhook: %w", envelope.Event, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s webhook request: %w", envelope.Event, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s webhook: %w", envelope.Event, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("%s webhook returned status %d: %s", envelope.Event, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	slog.Debug("webhook delivered", "event", envelope.Event, "status", resp.StatusCode)
	return nil
}
