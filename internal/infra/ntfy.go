package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

const ntfyUserAgent = "cammon/0.1.0"

// NtfyNotifier posts alerts to an ntfy topic URL.
type NtfyNotifier struct {
	endpoint string
	client   *http.Client
}

// NewNtfyNotifier creates an ntfy notifier. A non-positive timeout means 10s.
func NewNtfyNotifier(endpoint string, timeout time.Duration) *NtfyNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfyNotifier{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
	}
}

// Notify posts the body with the subject as the ntfy title.
func (n *NtfyNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(alert.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", ntfyUserAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", alert.Subject)
	req.Header.Set("Tags", "rotating_light")
	req.Header.Set("Priority", "high")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ensure NtfyNotifier implements domain.Notifier.
var _ domain.Notifier = (*NtfyNotifier)(nil)
