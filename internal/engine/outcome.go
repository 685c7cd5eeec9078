package engine

import "github.com/felixgeelhaar/stride/internal/entity"

// OutcomeKind tags how trustworthy a published state transition is.
type OutcomeKind int

const (
	// OutcomeOptimistic is the immediate local apply, ahead of any network
	// confirmation.
	OutcomeOptimistic OutcomeKind = iota
	// OutcomeConfirmed means the backend accepted the mutation; the carried
	// goal merges any server-canonical fields.
	OutcomeConfirmed
	// OutcomeReconciled means the mutation failed and the goal was replaced
	// wholesale by the server's authoritative version.
	OutcomeReconciled
	// OutcomeReconcileFailed means both the mutation and the recovery
	// refetch failed; the optimistic state is left in place.
	OutcomeReconcileFailed
)

// String returns the string representation of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOptimistic:
		return "optimistic"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeReconciled:
		return "reconciled"
	case OutcomeReconcileFailed:
		return "reconcile-failed"
	default:
		return "unknown"
	}
}

// Outcome is one published transition of a mutation's lifecycle:
// Idle → Optimistic → {Confirmed | Reconciled}.
type Outcome struct {
	Kind       OutcomeKind
	MutationID string
	Op         string
	GoalID     string

	// Goal is a snapshot of the goal after this transition. Nil when the
	// goal no longer exists (delete confirmed, create rolled back).
	Goal *entity.Goal

	// Err carries the non-fatal mutation error on Reconciled and
	// ReconcileFailed outcomes.
	Err error
}

// Listener receives every published outcome. Calls arrive from the engine's
// network goroutines; implementations must be safe for concurrent use.
type Listener func(Outcome)
