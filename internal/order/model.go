package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusPickedUp       Status = "picked_up"
	StatusPendingPayment Status = "pending_payment"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTerminal PaymentMethod = "clip" // Clip terminal, paid asynchronously via webhook
)

func (m PaymentMethod) String() string {
	return string(m)
}

type Item struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID                 uuid.UUID     `json:"id"`
	BusinessID         uuid.UUID     `json:"business_id"`
	OrderNumber        string        `json:"order_number"`
	Status             Status        `json:"status"`
	PaymentMethod      PaymentMethod `json:"payment_method"`
	PaymentReference   string        `json:"payment_reference,omitempty"`
	CashRegisterID     *uuid.UUID    `json:"cash_register_id,omitempty"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	NotificationSent   bool          `json:"notification_sent"`
	Items              []Item        `json:"items"`
	Subtotal           float64       `json:"subtotal"`
	Tax                float64       `json:"tax"`
	Tip                float64       `json:"tip"`
	Total              float64       `json:"total"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	ConfirmedAt        *time.Time    `json:"confirmed_at,omitempty"`
	StartedPreparingAt *time.Time    `json:"started_preparing_at,omitempty"`
	ReadyAt            *time.Time    `json:"ready_at,omitempty"`
	PickedUpAt         *time.Time    `json:"picked_up_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
}

// StatusHistory is an append-only audit record of a single status change.
// OldStatus is nil only for the creation event; ChangedBy is nil for
// system-driven changes (webhook confirmations).
type StatusHistory struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus *Status   `json:"old_status,omitempty"`
	NewStatus Status    `json:"new_status"`
	ChangedBy *string   `json:"changed_by,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
