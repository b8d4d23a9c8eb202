package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
)

var allStatuses = []order.Status{
	order.StatusPending,
	order.StatusConfirmed,
	order.StatusPreparing,
	order.StatusReady,
	order.StatusPickedUp,
	order.StatusPendingPayment,
	order.StatusCompleted,
	order.StatusCancelled,
}

func TestIsTransitionAllowed(t *testing.T) {
	legal := map[order.Status][]order.Status{
		order.StatusNone:           {order.StatusPending, order.StatusPendingPayment},
		order.StatusPending:        {order.StatusConfirmed, order.StatusCancelled},
		order.StatusConfirmed:      {order.StatusPreparing, order.StatusCancelled},
		order.StatusPreparing:      {order.StatusReady, order.StatusCancelled},
		order.StatusReady:          {order.StatusPickedUp, order.StatusCancelled},
		order.StatusPendingPayment: {order.StatusCompleted, order.StatusCancelled},
		order.StatusPickedUp:       {},
		order.StatusCompleted:      {},
		order.StatusCancelled:      {},
	}

	for from, targets := range legal {
		allowed := make(map[order.Status]bool, len(targets))
		for _, to := range targets {
			allowed[to] = true
		}
		for _, to := range allStatuses {
			got := order.IsTransitionAllowed(from, to)
			assert.Equalf(t, allowed[to], got, "transition %q -> %q", from, to)
		}
	}
}

func TestIsTransitionAllowed_NoSkippingStates(t *testing.T) {
	// A stale client must not be able to jump over intermediate processing.
	assert.False(t, order.IsTransitionAllowed(order.StatusPending, order.StatusReady))
	assert.False(t, order.IsTransitionAllowed(order.StatusPending, order.StatusPreparing))
	assert.False(t, order.IsTransitionAllowed(order.StatusConfirmed, order.StatusPickedUp))
}

func TestIsTransitionAllowed_CancellableFromNonTerminal(t *testing.T) {
	nonTerminal := []order.Status{
		order.StatusPending,
		order.StatusConfirmed,
		order.StatusPreparing,
		order.StatusReady,
		order.StatusPendingPayment,
	}
	for _, from := range nonTerminal {
		assert.Truef(t, order.IsTransitionAllowed(from, order.StatusCancelled), "cancellation from %q", from)
	}
}

func TestIsTransitionAllowed_TerminalStatesAreDeadEnds(t *testing.T) {
	for _, from := range []order.Status{order.StatusPickedUp, order.StatusCancelled, order.StatusCompleted} {
		for _, to := range allStatuses {
			assert.Falsef(t, order.IsTransitionAllowed(from, to), "transition %q -> %q", from, to)
		}
		assert.Empty(t, order.AllowedTransitions(from))
		assert.True(t, order.IsTerminal(from))
	}
}

func TestIsTransitionAllowed_UnknownStatus(t *testing.T) {
	assert.False(t, order.IsTransitionAllowed(order.Status("shipped"), order.StatusCancelled))
	assert.Empty(t, order.AllowedTransitions(order.Status("shipped")))
	assert.False(t, order.IsTerminal(order.Status("shipped")))
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t, []order.Status{order.StatusCancelled, order.StatusConfirmed}, order.AllowedTransitions(order.StatusPending))
	assert.Equal(t, []order.Status{order.StatusCancelled, order.StatusCompleted}, order.AllowedTransitions(order.StatusPendingPayment))
}

func TestTimestampColumn(t *testing.T) {
	expected := map[order.Status]string{
		order.StatusConfirmed: "confirmed_at",
		order.StatusPreparing: "started_preparing_at",
		order.StatusReady:     "ready_at",
		order.StatusPickedUp:  "picked_up_at",
		order.StatusCompleted: "completed_at",
		order.StatusCancelled: "cancelled_at",
	}

	for status, column := range expected {
		got, ok := order.TimestampColumn(status)
		assert.Truef(t, ok, "status %q should stamp a column", status)
		assert.Equal(t, column, got)
	}

	// Creation statuses stamp created_at through the insert itself.
	_, ok := order.TimestampColumn(order.StatusPending)
	assert.False(t, ok)
	_, ok = order.TimestampColumn(order.StatusPendingPayment)
	assert.False(t, ok)
}
