// Package notify implements the NotificationSink port by posting rendered
// payloads to a webhook URL.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apidrift/driftwatch/internal/domain/port/driven"
	"github.com/apidrift/driftwatch/internal/report"
)

// Compile-time interface satisfaction check.
var _ driven.NotificationSink = (*Webhook)(nil)

// Format selects the payload shape posted to the endpoint.
type Format string

const (
	// FormatText posts the markdown payload as-is in the "text" field, the
	// shape chat webhook endpoints accept.
	FormatText Format = "text"
	// FormatHTML additionally includes a sanitized HTML fragment in the
	// "html" field for endpoints that embed dashboard content.
	FormatHTML Format = "html"
)

// Webhook delivers payloads as JSON posts. The markdown payload is rendered
// upstream; this sink only converts (in HTML mode) and delivers.
type Webhook struct {
	httpClient *http.Client
	url        string
	format     Format
}

// NewWebhook creates a sink posting to the given URL.
func NewWebhook(url string, format Format) *Webhook {
	return &Webhook{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
		format:     format,
	}
}

// NewWebhookWithHTTPClient creates a Webhook with a custom http.Client.
// This constructor is intended for testing.
func NewWebhookWithHTTPClient(httpClient *http.Client, url string, format Format) *Webhook {
	return &Webhook{httpClient: httpClient, url: url, format: format}
}

// Deliver posts the payload. A non-2xx response is an error; the caller
// decides whether delivery failures matter.
func (w *Webhook) Deliver(ctx context.Context, payload string) error {
	msg := map[string]string{"text": payload}
	if w.format == FormatHTML {
		msg["html"] = report.RenderHTML(payload)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	return nil
}
