package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/notification"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

func readyOrder() *order.Order {
	return &order.Order{
		ID:          uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000"),
		OrderNumber: "order-123",
		Status:      order.StatusReady,
	}
}

func TestWebhookDispatcher_SendOrderReady(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := &notification.WebhookDispatcher{Client: server.Client(), URL: server.URL}
	err := d.SendOrderReady(context.Background(), readyOrder())

	assert.NoError(t, err)
	assert.Equal(t, map[string]string{
		"order_id":     "550e8400-e29b-41d4-a716-446655440000",
		"order_number": "order-123",
		"status":       "ready",
	}, received)
}

func TestWebhookDispatcher_SendOrderReady_EndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := &notification.WebhookDispatcher{Client: server.Client(), URL: server.URL}
	err := d.SendOrderReady(context.Background(), readyOrder())
	assert.Error(t, err)
}

func TestLogDispatcher_SendOrderReady(t *testing.T) {
	err := notification.LogDispatcher{}.SendOrderReady(context.Background(), readyOrder())
	assert.NoError(t, err)
}
