package order

import "sort"

// StatusNone marks the creation event: an order that does not exist yet
// has no status, so the transition table keys it with the empty string.
const StatusNone Status = ""

// allowedTransitions is the whole state machine. Transitions move strictly
// forward through the pipeline; cancellation is reachable from every
// non-terminal state and skipping an intermediate state is never legal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusNone: {
		StatusPending:        true,
		StatusPendingPayment: true,
	},
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusPreparing: true,
		StatusCancelled: true,
	},
	StatusPreparing: {
		StatusReady:     true,
		StatusCancelled: true,
	},
	StatusReady: {
		StatusPickedUp:  true,
		StatusCancelled: true,
	},
	StatusPendingPayment: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusPickedUp:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// timestampColumns maps each entered status to the single orders column
// stamped on that transition. Creation stamps created_at via the insert
// itself, so pending and pending_payment have no entry here.
var timestampColumns = map[Status]string{
	StatusConfirmed: "confirmed_at",
	StatusPreparing: "started_preparing_at",
	StatusReady:     "ready_at",
	StatusPickedUp:  "picked_up_at",
	StatusCompleted: "completed_at",
	StatusCancelled: "cancelled_at",
}

func IsTransitionAllowed(from, to Status) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// AllowedTransitions returns the legal target statuses for from, sorted
// for stable output. Unknown and terminal statuses yield an empty slice.
func AllowedTransitions(from Status) []Status {
	targets := allowedTransitions[from]
	result := make([]Status, 0, len(targets))
	for s := range targets {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	targets, ok := allowedTransitions[s]
	return ok && len(targets) == 0
}

// TimestampColumn returns the orders column stamped when an order enters s.
func TimestampColumn(s Status) (string, bool) {
	col, ok := timestampColumns[s]
	return col, ok
}
