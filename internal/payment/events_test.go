package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/payment"
)

func TestIsSuccessEvent(t *testing.T) {
	assert.True(t, payment.IsSuccessEvent("payment.success"))
	assert.True(t, payment.IsSuccessEvent("Payment.Success"))
	assert.True(t, payment.IsSuccessEvent("charge.approved"))
	assert.False(t, payment.IsSuccessEvent("payment.failed"))
	assert.False(t, payment.IsSuccessEvent(""))
}

func TestIsSuccessStatus(t *testing.T) {
	for _, s := range []string{"paid", "PAID", "Approved", "completed", "SUCCESS"} {
		assert.Truef(t, payment.IsSuccessStatus(s), "status %q", s)
	}
	for _, s := range []string{"pending", "declined", "refunded", ""} {
		assert.Falsef(t, payment.IsSuccessStatus(s), "status %q", s)
	}
}

func TestWebhookData_FieldFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		data    payment.WebhookData
		wantID  string
		wantRef string
	}{
		{
			name:    "canonical_fields",
			data:    payment.WebhookData{ID: "pay-1", Reference: "order-123"},
			wantID:  "pay-1",
			wantRef: "order-123",
		},
		{
			name:    "payment_request_id_and_external_reference",
			data:    payment.WebhookData{PaymentRequestID: "req-9", ExternalRef: "order-123"},
			wantID:  "req-9",
			wantRef: "order-123",
		},
		{
			name:    "metadata_sale_id",
			data:    payment.WebhookData{PaymentID: "pay-2", Metadata: payment.WebhookMetadata{SaleID: "sale-7"}},
			wantID:  "pay-2",
			wantRef: "sale-7",
		},
		{
			name:    "reference_falls_back_to_payment_id",
			data:    payment.WebhookData{ID: "pay-3"},
			wantID:  "pay-3",
			wantRef: "pay-3",
		},
		{
			name:    "empty_payload",
			data:    payment.WebhookData{},
			wantID:  "",
			wantRef: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, tt.data.PaymentIdentifier())
			assert.Equal(t, tt.wantRef, tt.data.OrderReference())
		})
	}
}
