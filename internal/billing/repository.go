package billing

import (
	"context"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

// RoleEffect describes a directory mutation that must commit atomically
// with the subscription transition that caused it.
type RoleEffect struct {
	// UserID, when set, is elevated to Admin of DealershipID with
	// admin-gated access. When empty with Grant=false, admin-gated access
	// is revoked for every admin of DealershipID.
	UserID       string
	DealershipID string
	Grant        bool
}

// TransitionEffects are the side effects that ride inside the unit of work
// of a state transition. The audit entry is mandatory: its write failure
// aborts the whole transition.
type TransitionEffects struct {
	Role  *RoleEffect
	Audit *audit.Entry
}

// Store persists subscription state and the event deduplication log.
// CommitTransition is the single atomic unit the state machine relies on.
type Store interface {
	CreateSubscription(ctx context.Context, rec *SubscriptionRecord) error
	GetSubscription(ctx context.Context, dealershipID string) (*SubscriptionRecord, error)
	GetSubscriptionByCheckoutRef(ctx context.Context, ref string) (*SubscriptionRecord, error)

	// CommitTransition executes one unit of work: insert the processed-event
	// row (when pe is non-nil), apply the version-guarded subscription
	// update (when rec is non-nil), perform the role effect, and write the
	// audit entry — all in one transaction.
	//
	// Returns ErrEventAlreadyProcessed when the event id already has an
	// applied row, and ErrVersionConflict when the stored version no longer
	// equals expectedVersion; in both cases nothing is persisted.
	CommitTransition(ctx context.Context, pe *ProcessedEvent, rec *SubscriptionRecord, expectedVersion int64, effects TransitionEffects) error

	// RecordEvent appends a dedup-log row outside any transition, used for
	// DuplicateIgnored and Rejected outcomes.
	RecordEvent(ctx context.Context, pe *ProcessedEvent) error

	// ListEvents returns every recorded delivery of one event id, oldest
	// first.
	ListEvents(ctx context.Context, eventID string) ([]*ProcessedEvent, error)
}
