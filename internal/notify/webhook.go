package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"oliver-admin/internal/logging"
)

// WebhookNotifier posts completion messages to an HTTP endpoint behind a
// circuit breaker.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

type webhookPayload struct {
	Event  string          `json:"event"`
	Data   ExportCompleted `json:"data"`
	SentAt time.Time       `json:"sentAt"`
}

// NewWebhookNotifier constructs a notifier. The breaker opens after
// failureThreshold consecutive failures and retries after cooldown.
func NewWebhookNotifier(url string, failureThreshold uint32, cooldown time.Duration) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook notifier: empty url")
	}
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "export-webhook",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &WebhookNotifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: breaker,
	}, nil
}

// Notify sends msg to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg ExportCompleted) error {
	if n == nil {
		return errors.New("webhook notifier: nil notifier")
	}
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, msg)
	})
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, msg ExportCompleted) error {
	body, err := json.Marshal(webhookPayload{Event: EventExportComplete, Data: msg, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}
	return nil
}
