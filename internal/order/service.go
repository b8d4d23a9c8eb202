package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNoItems                 = errors.New("order must contain at least one item")
)

const defaultCancellationReason = "cancelled by staff"

// ReadyNotifier dispatches the customer-facing "order ready" notification.
// Failures are the notifier's to report; the orchestrator only logs them.
type ReadyNotifier interface {
	SendOrderReady(ctx context.Context, ord *Order) error
}

// UpdateOptions carries the optional metadata of a status change request.
type UpdateOptions struct {
	Actor              string
	Notes              string
	CancellationReason string
}

type Service interface {
	CreateOrder(ctx context.Context, ord *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersByStatus(ctx context.Context, status Status) ([]Order, error)
	FindPendingPayment(ctx context.Context, paymentReference string) (*Order, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status, opts UpdateOptions) (*Order, error)
	TriggerReadyNotification(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type service struct {
	repo     Repository
	notifier ReadyNotifier
}

func NewService(repo Repository, notifier ReadyNotifier) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *service) CreateOrder(ctx context.Context, ord *Order) (*Order, error) {
	if len(ord.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrNoItems
	}

	for i := range ord.Items {
		item := &ord.Items[i]
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: order item quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("service: order item unit price for product %s cannot be negative", item.ProductID)
		}
		if item.ProductID == uuid.Nil {
			return nil, errors.New("service: product id in order item cannot be nil")
		}
	}

	if ord.Subtotal < 0 || ord.Tax < 0 || ord.Tip < 0 || ord.Total < 0 {
		return nil, errors.New("service: order amounts cannot be negative")
	}

	// Clip terminal sales wait for the provider callback; everything else
	// enters the fulfillment pipeline immediately.
	initial := StatusPending
	if ord.PaymentMethod == PaymentTerminal {
		initial = StatusPendingPayment
	}
	if !IsTransitionAllowed(StatusNone, initial) {
		return nil, ErrInvalidStatusTransition
	}
	ord.ID = uuid.Nil
	ord.Status = initial
	ord.NotificationSent = false
	ord.CancellationReason = nil

	if err := s.repo.Create(ctx, ord); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	s.logStatusChange(ctx, ord.ID, nil, ord.Status, "", "order created")

	log.Info().Stringer("order_id", ord.ID).Str("order_number", ord.OrderNumber).Str("status", string(ord.Status)).Msg("service: order created")
	return ord, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return ord, nil
}

func (s *service) ListOrdersByStatus(ctx context.Context, status Status) ([]Order, error) {
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("service: failed to fetch orders by status in repository")
		return nil, fmt.Errorf("service: failed to fetch orders by status: %w", err)
	}
	return orders, nil
}

func (s *service) FindPendingPayment(ctx context.Context, paymentReference string) (*Order, error) {
	ord, err := s.repo.FindPendingPayment(ctx, paymentReference)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("payment_reference", paymentReference).Msg("service: failed to fetch pending payment order in repository")
		return nil, fmt.Errorf("service: failed to fetch pending payment order: %w", err)
	}
	return ord, nil
}

func (s *service) ListHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error) {
	records, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch status history in repository")
		return nil, fmt.Errorf("service: failed to fetch status history: %w", err)
	}
	return records, nil
}

// UpdateOrderStatus moves an order through the state machine: fetch,
// validate the transition, persist through a conditional write, append the
// audit record, then run the side effects the new status demands. History
// and side-effect failures are logged and never roll back the committed
// status change; a failed status write aborts everything after it.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status, opts UpdateOptions) (*Order, error) {
	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return nil, fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if !IsTransitionAllowed(current.Status, newStatus) {
		log.Warn().
			Stringer("order_id", current.ID).
			Str("current_status", string(current.Status)).
			Str("new_status", string(newStatus)).
			Msg("service: invalid status transition attempt")
		return nil, ErrInvalidStatusTransition
	}

	var cancellationReason *string
	if newStatus == StatusCancelled {
		reason := opts.CancellationReason
		if reason == "" {
			reason = defaultCancellationReason
		}
		cancellationReason = &reason
	}

	err = s.repo.UpdateStatus(ctx, orderID, current.Status, newStatus, cancellationReason)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// A concurrent request won the write. The transition we validated
			// no longer applies, so reject it like any other illegal one.
			log.Warn().Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("service: lost status update race, rejecting transition")
			return nil, ErrInvalidStatusTransition
		}
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	oldStatus := current.Status
	s.logStatusChange(ctx, orderID, &oldStatus, newStatus, opts.Actor, opts.Notes)

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		// The write committed; return the state we know rather than failing.
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to refetch order after status update")
		current.Status = newStatus
		current.CancellationReason = cancellationReason
		updated = current
	}

	if newStatus == StatusReady {
		s.notifyIfReady(ctx, updated)
	}

	log.Info().Stringer("order_id", orderID).Str("old_status", string(oldStatus)).Str("new_status", string(newStatus)).Msg("service: order status updated")
	return updated, nil
}

// TriggerReadyNotification re-checks the persisted order and dispatches the
// ready notification at most once per order.
func (s *service) TriggerReadyNotification(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return false, ErrOrderNotFound
		}
		return false, fmt.Errorf("service: failed to get order for ready notification: %w", err)
	}
	return s.notifyIfReady(ctx, ord), nil
}

// notifyIfReady is a no-op unless the order is ready and unnotified. The
// flag write follows the dispatch: a crash in between risks a duplicate
// notification, never a lost one.
func (s *service) notifyIfReady(ctx context.Context, ord *Order) bool {
	if ord.Status != StatusReady {
		return false
	}
	if ord.NotificationSent {
		return false
	}

	if err := s.notifier.SendOrderReady(ctx, ord); err != nil {
		log.Error().Err(err).Stringer("order_id", ord.ID).Msg("service: failed to dispatch ready notification")
		return false
	}
	if err := s.repo.SetNotificationSent(ctx, ord.ID); err != nil {
		log.Error().Err(err).Stringer("order_id", ord.ID).Msg("service: failed to persist notification flag")
	} else {
		ord.NotificationSent = true
	}

	log.Info().Stringer("order_id", ord.ID).Str("order_number", ord.OrderNumber).Msg("service: ready notification dispatched")
	return true
}

// logStatusChange appends the audit record for an accepted transition.
// History is best-effort: a storage failure is logged and swallowed so the
// already-committed status change stays the source of truth.
func (s *service) logStatusChange(ctx context.Context, orderID uuid.UUID, oldStatus *Status, newStatus Status, actor, notes string) *StatusHistory {
	record := &StatusHistory{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
	if actor != "" {
		record.ChangedBy = &actor
	}
	if notes != "" {
		record.Notes = &notes
	}

	if err := s.repo.InsertHistory(ctx, record); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).Msg("service: failed to write status history, proceeding without audit record")
		return nil
	}
	return record
}
