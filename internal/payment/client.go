package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusResponse is the provider status-lookup body. Some deployments
// return `status`, some `payment_status`.
type StatusResponse struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (r *StatusResponse) Value() string {
	if r.Status != "" {
		return r.Status
	}
	return r.PaymentStatus
}

// ProviderClient looks up the current state of a payment at the provider.
type ProviderClient interface {
	GetPaymentStatus(ctx context.Context, paymentID string) (*StatusResponse, error)
}

type HTTPProviderClient struct {
	Client  *http.Client
	BaseURL string
}

// GetPaymentStatus returns nil without error when the provider does not
// know the payment, so callers can treat it as "nothing to settle".
func (c *HTTPProviderClient) GetPaymentStatus(ctx context.Context, paymentID string) (*StatusResponse, error) {
	url := fmt.Sprintf("%s/payments/%s", c.BaseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("payment: create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("payment: provider rate limited status lookup for %s", paymentID)
	default:
		return nil, fmt.Errorf("payment: unexpected provider status: %d", resp.StatusCode)
	}

	var sr StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("payment: decode body: %w", err)
	}
	return &sr, nil
}
