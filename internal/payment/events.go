package payment

import "strings"

// successEvents is the fixed allow-list of provider push event names that
// mean a payment settled.
var successEvents = map[string]bool{
	"payment.success":   true,
	"payment.completed": true,
	"charge.approved":   true,
}

// successStatuses is the allow-list for provider status strings, checked
// case-insensitively on both the webhook body and the lookup endpoint.
var successStatuses = map[string]bool{
	"paid":      true,
	"approved":  true,
	"completed": true,
	"success":   true,
}

func IsSuccessEvent(event string) bool {
	return successEvents[strings.ToLower(event)]
}

func IsSuccessStatus(status string) bool {
	return successStatuses[strings.ToLower(status)]
}

// WebhookEvent is the provider push payload. Providers disagree on field
// names, so identifiers and references each come from the first populated
// candidate.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ID               string          `json:"id"`
	PaymentRequestID string          `json:"payment_request_id"`
	PaymentID        string          `json:"payment_id"`
	Reference        string          `json:"reference"`
	ExternalRef      string          `json:"external_reference"`
	Status           string          `json:"status"`
	Metadata         WebhookMetadata `json:"metadata"`
}

type WebhookMetadata struct {
	SaleID string `json:"sale_id"`
}

// PaymentIdentifier returns the provider-side payment id.
func (d WebhookData) PaymentIdentifier() string {
	for _, id := range []string{d.ID, d.PaymentRequestID, d.PaymentID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// OrderReference returns our correlation key for the sale, falling back to
// the payment identifier when the provider echoes nothing else back.
func (d WebhookData) OrderReference() string {
	for _, ref := range []string{d.Reference, d.ExternalRef, d.Metadata.SaleID} {
		if ref != "" {
			return ref
		}
	}
	return d.PaymentIdentifier()
}
