package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

// WebhookDispatcher posts the ready notification to a configured endpoint.
// Delivery is fire-and-forget: the caller logs failures and moves on.
type WebhookDispatcher struct {
	Client *http.Client
	URL    string
}

type readyPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

func (d *WebhookDispatcher) SendOrderReady(ctx context.Context, ord *order.Order) error {
	payload := readyPayload{
		OrderID:     ord.ID.String(),
		OrderNumber: ord.OrderNumber,
		Status:      string(ord.Status),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification: failed to marshal ready payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: failed to deliver ready notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification: ready notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// LogDispatcher is the fallback when no notification endpoint is configured.
type LogDispatcher struct{}

func (LogDispatcher) SendOrderReady(_ context.Context, ord *order.Order) error {
	log.Info().Stringer("order_id", ord.ID).Str("order_number", ord.OrderNumber).Msg("notification: order ready")
	return nil
}
