package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/inventory"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/register"
)

// ConfirmResult reports what a confirmation attempt did. Processed is false
// for acknowledged no-ops: unknown events, replayed webhooks, already
// settled or absent sales. Those are not errors — the provider must not
// retry them.
type ConfirmResult struct {
	Processed bool         `json:"processed"`
	Message   string       `json:"message,omitempty"`
	Order     *order.Order `json:"order,omitempty"`
}

type Service interface {
	HandleWebhook(ctx context.Context, event WebhookEvent) (*ConfirmResult, error)
	CheckPayment(ctx context.Context, orderID uuid.UUID) (*ConfirmResult, error)
}

type service struct {
	orders    order.Service
	inventory inventory.Service
	registers register.Repository
	provider  ProviderClient
}

func NewService(orders order.Service, inv inventory.Service, registers register.Repository, provider ProviderClient) Service {
	return &service{
		orders:    orders,
		inventory: inv,
		registers: registers,
		provider:  provider,
	}
}

// HandleWebhook maps a provider push onto the internal completion event.
// Idempotence against replay comes from current-state inspection: a sale is
// only resolved while it is still pending_payment, so re-delivery finds no
// pending sale and is acknowledged without effects.
func (s *service) HandleWebhook(ctx context.Context, event WebhookEvent) (*ConfirmResult, error) {
	if !IsSuccessEvent(event.Event) && !IsSuccessStatus(event.Data.Status) {
		log.Info().Str("event", event.Event).Str("status", event.Data.Status).Msg("payment: ignoring non-success webhook event")
		return &ConfirmResult{Processed: false, Message: "event ignored"}, nil
	}

	reference := event.Data.OrderReference()
	if reference == "" {
		log.Warn().Str("event", event.Event).Msg("payment: webhook carried no payment reference")
		return &ConfirmResult{Processed: false, Message: "no payment reference"}, nil
	}

	ord, err := s.orders.FindPendingPayment(ctx, reference)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Info().Str("payment_reference", reference).Msg("payment: no pending sale for webhook, acknowledging")
			return &ConfirmResult{Processed: false, Message: "no pending sale"}, nil
		}
		return nil, fmt.Errorf("payment: failed to resolve webhook reference %s: %w", reference, err)
	}

	return s.complete(ctx, ord)
}

// CheckPayment is the synchronous poller entry: consult our own store
// first, call the provider only when the sale is still open.
func (s *service) CheckPayment(ctx context.Context, orderID uuid.UUID) (*ConfirmResult, error) {
	ord, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status == order.StatusCompleted {
		return &ConfirmResult{Processed: false, Message: "already completed", Order: ord}, nil
	}
	if ord.Status != order.StatusPendingPayment {
		return &ConfirmResult{Processed: false, Message: "order is not awaiting payment", Order: ord}, nil
	}
	if ord.PaymentReference == "" {
		return &ConfirmResult{Processed: false, Message: "order has no payment reference", Order: ord}, nil
	}

	status, err := s.provider.GetPaymentStatus(ctx, ord.PaymentReference)
	if err != nil {
		return nil, fmt.Errorf("payment: provider status lookup failed for order %s: %w", orderID, err)
	}
	if status == nil {
		log.Warn().Stringer("order_id", orderID).Str("payment_reference", ord.PaymentReference).Msg("payment: provider does not know this payment")
		return &ConfirmResult{Processed: false, Message: "payment not found at provider", Order: ord}, nil
	}
	if !IsSuccessStatus(status.Value()) {
		return &ConfirmResult{Processed: false, Message: fmt.Sprintf("payment status is %q", status.Value()), Order: ord}, nil
	}

	return s.complete(ctx, ord)
}

// complete marks the sale completed and applies the sale side effects.
// The orchestrator's conditional write is the race guard: if another
// confirmation got there first this transition is rejected and we
// acknowledge without re-applying effects.
func (s *service) complete(ctx context.Context, ord *order.Order) (*ConfirmResult, error) {
	updated, err := s.orders.UpdateOrderStatus(ctx, ord.ID, order.StatusCompleted, order.UpdateOptions{
		Notes: "payment confirmed",
	})
	if err != nil {
		if errors.Is(err, order.ErrInvalidStatusTransition) {
			log.Info().Stringer("order_id", ord.ID).Msg("payment: sale already settled, acknowledging")
			return &ConfirmResult{Processed: false, Message: "no pending sale"}, nil
		}
		return nil, fmt.Errorf("payment: failed to complete order %s: %w", ord.ID, err)
	}

	if err := s.inventory.DeductForOrder(ctx, updated); err != nil {
		// Side effects never roll back the committed completion.
		log.Error().Err(err).Stringer("order_id", updated.ID).Msg("payment: inventory deduction failed after completion")
	}

	if updated.CashRegisterID != nil {
		err := s.registers.IncrementTotals(ctx, *updated.CashRegisterID, updated.Total, updated.PaymentMethod)
		if err != nil {
			log.Error().Err(err).Stringer("order_id", updated.ID).Stringer("register_id", *updated.CashRegisterID).Msg("payment: register reconciliation failed after completion")
		}
	}

	log.Info().Stringer("order_id", updated.ID).Str("order_number", updated.OrderNumber).Msg("payment: sale completed")
	return &ConfirmResult{Processed: true, Message: "payment confirmed", Order: updated}, nil
}
