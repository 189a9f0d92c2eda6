// -----------------------------------------------------------------------
// Webhook Notifier - Best-effort delivery of report completion events
// -----------------------------------------------------------------------

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
)

// WebhookNotifier posts report completion notifications to a configured
// webhook URL. Delivery runs detached from the report lifecycle: each
// notification is attempted a bounded number of times and failures are
// logged, never surfaced to the caller.
//
// An empty webhook URL disables delivery entirely.
type WebhookNotifier struct {
	url        string
	retries    int
	retryDelay time.Duration
	client     *http.Client
	logger     arbor.ILogger
}

// NewWebhookNotifier creates the notifier from config
func NewWebhookNotifier(config *common.NotifyConfig, logger arbor.ILogger) (*WebhookNotifier, error) {
	if config == nil {
		return nil, fmt.Errorf("notify config is required")
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	timeout := 10 * time.Second
	if parsed, err := time.ParseDuration(config.Timeout); err == nil && parsed > 0 {
		timeout = parsed
	}
	retryDelay := 2 * time.Second
	if parsed, err := time.ParseDuration(config.RetryDelay); err == nil && parsed > 0 {
		retryDelay = parsed
	}
	retries := config.Retries
	if retries < 0 {
		retries = 0
	}

	if config.WebhookURL == "" {
		logger.Info().Msg("Webhook notifications disabled (no URL configured)")
	}

	return &WebhookNotifier{
		url:        config.WebhookURL,
		retries:    retries,
		retryDelay: retryDelay,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// NotifyAsync queues the notification for background delivery and returns
// immediately
func (n *WebhookNotifier) NotifyAsync(notification interfaces.ReportNotification) {
	if n.url == "" {
		return
	}
	common.SafeGo(n.logger, "webhook-notify", func() {
		n.deliver(notification)
	})
}

// deliver attempts the webhook post with bounded retries
func (n *WebhookNotifier) deliver(notification interfaces.ReportNotification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to marshal webhook payload")
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(n.retryDelay)
		}
		if lastErr = n.post(payload); lastErr == nil {
			n.logger.Info().
				Str("request_id", notification.RequestID).
				Str("status", notification.Status).
				Msg("Webhook notification delivered")
			return
		}
		n.logger.Warn().
			Str("request_id", notification.RequestID).
			Int("attempt", attempt+1).
			Err(lastErr).
			Msg("Webhook delivery attempt failed")
	}

	n.logger.Error().
		Str("request_id", notification.RequestID).
		Err(lastErr).
		Msg("Webhook delivery abandoned after retries")
}

func (n *WebhookNotifier) post(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ interfaces.NotifyService = (*WebhookNotifier)(nil)
